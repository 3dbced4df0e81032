package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/macarvajall/OFAC/internal/monitor"
	"github.com/macarvajall/OFAC/internal/sdn"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Monitor status",
		Description: "Reports per-source pipeline health, sanctions snapshot state, and alert totals",
		Tags:        []string{"Status"},
	}, s.handleGetStatus)
}

// SnapshotStatus describes the live sanctions snapshot.
type SnapshotStatus struct {
	Loaded      bool      `json:"loaded" doc:"Whether a snapshot is available for matching"`
	Generation  uint64    `json:"generation,omitempty" doc:"Monotonic snapshot generation"`
	Entities    int       `json:"entities,omitempty" doc:"Number of listed entities"`
	BuiltAt     time.Time `json:"built_at,omitzero" doc:"When the index was built"`
	PublishDate time.Time `json:"publish_date,omitzero" doc:"List publication date"`
	Origin      string    `json:"origin,omitempty" doc:"Where the snapshot was loaded from"`
	LastAttempt time.Time `json:"last_attempt,omitzero" doc:"Last refresh attempt"`
	LastSuccess time.Time `json:"last_success,omitzero" doc:"Last successful refresh"`
	LastError   string    `json:"last_error,omitempty" doc:"Error from the most recent failed refresh"`
}

// ThresholdStatus echoes the active classification policy.
type ThresholdStatus struct {
	High float64 `json:"high" doc:"Score at or above which a mention is a MATCH"`
	Low  float64 `json:"low" doc:"Score at or above which a relevant mention is a CANDIDATE"`
}

// StatusResponse is the full monitor status.
type StatusResponse struct {
	Sources    []monitor.SourceStats `json:"sources" doc:"Per-source pipeline state"`
	Snapshot   SnapshotStatus        `json:"snapshot" doc:"Sanctions list snapshot state"`
	Thresholds ThresholdStatus       `json:"thresholds" doc:"Active classification thresholds"`
	Alerts     int                   `json:"alerts" doc:"Total persisted alerts"`
}

// StatusOutput wraps the status response for Huma.
type StatusOutput struct {
	Body StatusResponse
}

func (s *Server) handleGetStatus(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	alerts, err := s.services.Alerts.Count(ctx)
	if err != nil {
		return nil, err
	}

	resp := StatusResponse{
		Sources: s.scheduler.Stats(),
		Thresholds: ThresholdStatus{
			High: s.classifier.High(),
			Low:  s.classifier.Low(),
		},
		Alerts:   alerts,
		Snapshot: s.snapshotStatus(),
	}
	return &StatusOutput{Body: resp}, nil
}

func (s *Server) snapshotStatus() SnapshotStatus {
	stats := s.syncerStats()
	out := SnapshotStatus{
		PublishDate: stats.Meta.PublishDate,
		Origin:      stats.Meta.Origin,
		LastAttempt: stats.LastAttempt,
		LastSuccess: stats.LastSuccess,
		LastError:   stats.LastError,
	}
	if ix := s.snapshots.Current(); ix != nil {
		out.Loaded = true
		out.Generation = ix.Generation()
		out.Entities = ix.Len()
		out.BuiltAt = ix.BuiltAt()
	}
	return out
}

func (s *Server) syncerStats() sdn.Stats {
	if s.syncer == nil {
		return sdn.Stats{}
	}
	return s.syncer.Stats()
}
