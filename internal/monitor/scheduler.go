// Package monitor drives the screening pipeline: it polls each
// configured source on its own cadence, hands fetched text to the
// extractor, matches extracted names against the current sanctions
// snapshot, and emits deduplicated alerts.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
	"github.com/macarvajall/OFAC/internal/extract"
	"github.com/macarvajall/OFAC/internal/fetch"
	"github.com/macarvajall/OFAC/internal/match"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

// Phase names the pipeline stage a source cycle is in, exposed through
// the status API.
type Phase string

// Cycle phases.
const (
	PhaseIdle       Phase = "IDLE"
	PhaseFetching   Phase = "FETCHING"
	PhaseExtracting Phase = "EXTRACTING"
	PhaseMatching   Phase = "MATCHING"
	PhaseEmitting   Phase = "EMITTING"
)

// DedupStore records an alert exactly once per dedup key.
type DedupStore interface {
	RecordIfNew(ctx context.Context, key string, record *domain.AlertRecord) (bool, error)
}

// Publisher receives every newly emitted alert. Publish must not
// block the pipeline; implementations buffer or drop.
type Publisher interface {
	PublishAlert(alert domain.AlertRecord)
}

// SourceStats is one source's cycle health, for the status API.
type SourceStats struct {
	SourceID  string    `json:"source_id"`
	Phase     Phase     `json:"phase"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastOK    time.Time `json:"last_ok,omitzero"`
	LastError string    `json:"last_error,omitempty"`

	Cycles        uint64 `json:"cycles"`
	ItemsFetched  uint64 `json:"items_fetched"`
	Mentions      uint64 `json:"mentions"`
	AlertsEmitted uint64 `json:"alerts_emitted"`
}

// Scheduler owns one polling goroutine per source. Each source ticks
// independently; a failing source never delays or aborts the others.
type Scheduler struct {
	sources    []config.Source
	fetcher    fetch.Fetcher
	extractor  extract.Extractor
	scorer     match.Scorer
	classifier *classify.Classifier
	snapshots  *sanctions.Snapshots
	dedup      DedupStore
	publishers []Publisher
	logger     *slog.Logger

	fetchTimeout   time.Duration
	extractTimeout time.Duration

	wg       sync.WaitGroup
	triggers map[string]chan struct{}

	mu    sync.Mutex
	stats map[string]*SourceStats
}

// Options carries the scheduler's collaborators.
type Options struct {
	Sources    []config.Source
	Fetcher    fetch.Fetcher
	Extractor  extract.Extractor
	Classifier *classify.Classifier
	Snapshots  *sanctions.Snapshots
	Dedup      DedupStore
	Publishers []Publisher
	Fetch      config.FetchConfig
	Logger     *slog.Logger
}

// NewScheduler builds a scheduler; Start actually launches the loops.
func NewScheduler(opts Options) *Scheduler {
	s := &Scheduler{
		sources:        opts.Sources,
		fetcher:        opts.Fetcher,
		extractor:      opts.Extractor,
		classifier:     opts.Classifier,
		snapshots:      opts.Snapshots,
		dedup:          opts.Dedup,
		publishers:     opts.Publishers,
		logger:         opts.Logger,
		fetchTimeout:   opts.Fetch.Timeout,
		extractTimeout: opts.Fetch.ExtractTimeout,
		triggers:       make(map[string]chan struct{}, len(opts.Sources)),
		stats:          make(map[string]*SourceStats, len(opts.Sources)),
	}
	for _, src := range opts.Sources {
		s.triggers[src.ID] = make(chan struct{}, 1)
		s.stats[src.ID] = &SourceStats{SourceID: src.ID, Phase: PhaseIdle}
	}
	return s
}

// Start launches one polling loop per source. Loops stop when ctx is
// cancelled; Shutdown waits for in-flight cycles to drain.
func (s *Scheduler) Start(ctx context.Context) {
	for _, src := range s.sources {
		s.wg.Add(1)
		go s.pollLoop(ctx, src)
	}
	s.logger.Info("monitor started", "sources", len(s.sources))
}

// Shutdown blocks until every in-flight cycle finishes or ctx expires.
// No partial emission: each cycle either drains or was never started.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("monitor drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("monitor drain: %w", ctx.Err())
	}
}

// TriggerNow requests an immediate out-of-band cycle for one source.
// A trigger during an active cycle coalesces into a single pending run.
func (s *Scheduler) TriggerNow(sourceID string) error {
	ch, ok := s.triggers[sourceID]
	if !ok {
		return errors.NotFound(fmt.Sprintf("unknown source %q", sourceID))
	}
	select {
	case ch <- struct{}{}:
	default:
		// A run is already pending.
	}
	return nil
}

// Stats returns a point-in-time copy of every source's counters.
func (s *Scheduler) Stats() []SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceStats, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, *s.stats[src.ID])
	}
	return out
}

// pollLoop runs one source: an immediate first cycle, then one cycle
// per tick or manual trigger. Cycle failures are logged and counted,
// never propagated; the next tick retries from scratch.
func (s *Scheduler) pollLoop(ctx context.Context, src config.Source) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(src.FetchInterval))
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx, src); err != nil && ctx.Err() == nil {
			s.logger.Error("source cycle failed", "source", src.ID, "error", err)
		}

		select {
		case <-ticker.C:
		case <-s.triggers[src.ID]:
			s.logger.Info("manual cycle triggered", "source", src.ID)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) setPhase(sourceID string, p Phase) {
	s.mu.Lock()
	s.stats[sourceID].Phase = p
	s.mu.Unlock()
}

func (s *Scheduler) updateStats(sourceID string, fn func(*SourceStats)) {
	s.mu.Lock()
	fn(s.stats[sourceID])
	s.mu.Unlock()
}

func (s *Scheduler) recordCycleError(sourceID string, err error) {
	s.updateStats(sourceID, func(st *SourceStats) {
		st.LastError = err.Error()
	})
}
