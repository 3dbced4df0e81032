package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/search"
	"github.com/macarvajall/OFAC/internal/store"
)

// AlertService reads emitted alerts for the API.
type AlertService struct {
	store  *store.Store
	index  *search.AlertIndex
	limit  int
	logger *slog.Logger
}

// NewAlertService creates the alert read service. limit caps every
// listing.
func NewAlertService(s *store.Store, index *search.AlertIndex, limit int, logger *slog.Logger) *AlertService {
	return &AlertService{store: s, index: index, limit: limit, logger: logger}
}

// ListFilter narrows an alert listing.
type ListFilter struct {
	SourceID       string
	Classification domain.Classification
	Limit          int
}

// List returns alerts newest first, capped at the configured limit.
func (s *AlertService) List(ctx context.Context, filter ListFilter) ([]domain.AlertRecord, error) {
	all, err := s.store.Alerts.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	out := make([]domain.AlertRecord, 0, len(all))
	for _, a := range all {
		if filter.SourceID != "" && a.Mention.SourceID != filter.SourceID {
			continue
		}
		if filter.Classification != "" && a.Result.Classification != filter.Classification {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.After(out[j].FirstSeen)
		}
		return out[i].ID < out[j].ID
	})

	limit := filter.Limit
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search runs a full-text query over the alert index.
func (s *AlertService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if params.Limit <= 0 || params.Limit > s.limit {
		params.Limit = s.limit
	}
	return s.index.Search(ctx, params)
}

// Count returns the number of persisted alerts.
func (s *AlertService) Count(ctx context.Context) (int, error) {
	return s.store.Alerts.Count(ctx)
}

// WarmIndex loads every persisted alert into the search index. Called
// once at startup: the in-memory index restarts empty while the store
// does not.
func (s *AlertService) WarmIndex(ctx context.Context) error {
	alerts, err := s.store.Alerts.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("load alerts for index warmup: %w", err)
	}
	if err := s.index.IndexAlerts(alerts); err != nil {
		return fmt.Errorf("warm alert index: %w", err)
	}
	s.logger.Info("alert index warmed", "alerts", len(alerts))
	return nil
}

// ExportCSV streams every alert (newest first, uncapped) as CSV.
func (s *AlertService) ExportCSV(ctx context.Context, w io.Writer) error {
	all, err := s.store.Alerts.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("list alerts for export: %w", err)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].FirstSeen.Equal(all[j].FirstSeen) {
			return all[i].FirstSeen.After(all[j].FirstSeen)
		}
		return all[i].ID < all[j].ID
	})

	cw := csv.NewWriter(w)
	header := []string{
		"id", "first_seen", "source", "name", "entity_uid", "entity_name",
		"score", "classification", "label", "url", "context",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for i := range all {
		a := &all[i]
		row := []string{
			a.ID,
			a.FirstSeen.Format(time.RFC3339),
			a.Mention.SourceID,
			a.Mention.Raw,
			a.Result.EntityUID,
			a.Result.EntityName,
			strconv.FormatFloat(a.Result.Score, 'f', 4, 64),
			string(a.Result.Classification),
			a.Result.Classification.Label(),
			a.Mention.URL,
			a.Mention.Context,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
