package monitor

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/store"
)

type fakeFetcher struct {
	mu    sync.Mutex
	docs  []domain.RawDocument
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ config.Source) ([]domain.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fetcherFunc routes fetches to a plain function, for per-source
// behavior in multi-source tests.
type fetcherFunc func(ctx context.Context, src config.Source) ([]domain.RawDocument, error)

func (f fetcherFunc) Fetch(ctx context.Context, src config.Source) ([]domain.RawDocument, error) {
	return f(ctx, src)
}

// spanExtractor returns fixed spans for any text.
type spanExtractor struct {
	spans []domain.Span
}

func (e spanExtractor) ExtractPersons(_ string) []domain.Span {
	return e.spans
}

type capturePublisher struct {
	mu     sync.Mutex
	alerts []domain.AlertRecord
}

func (p *capturePublisher) PublishAlert(a domain.AlertRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

func testSnapshots(t *testing.T) *sanctions.Snapshots {
	t.Helper()
	ix, err := sanctions.Build([]domain.SanctionEntity{
		{UID: "1001", PrimaryName: "SMITH, John", Kind: domain.KindPerson},
		{UID: "1002", PrimaryName: "ACME TRADING LLC", Kind: domain.KindOrganization},
	})
	if err != nil {
		t.Fatal(err)
	}
	snaps := sanctions.NewSnapshots(nil)
	snaps.Swap(ix)
	return snaps
}

func testSource() config.Source {
	return config.Source{
		ID:            "feed-1",
		URL:           "http://example.com/rss",
		FetchInterval: config.Duration(time.Hour),
	}
}

type schedulerEnv struct {
	scheduler *Scheduler
	fetcher   *fakeFetcher
	dedup     *store.MemoryDedup
	published *capturePublisher
}

func setupScheduler(t *testing.T, fetcher *fakeFetcher, extractor spanExtractor, snaps *sanctions.Snapshots) schedulerEnv {
	t.Helper()

	classifier, err := classify.New(0.90, 0.60)
	if err != nil {
		t.Fatal(err)
	}

	dedup := store.NewMemoryDedup()
	published := &capturePublisher{}

	s := NewScheduler(Options{
		Sources:    []config.Source{testSource()},
		Fetcher:    fetcher,
		Extractor:  extractor,
		Classifier: classifier,
		Snapshots:  snaps,
		Dedup:      dedup,
		Publishers: []Publisher{published},
		Fetch:      config.FetchConfig{Timeout: time.Second, ExtractTimeout: time.Second},
		Logger:     slog.New(slog.DiscardHandler),
	})
	return schedulerEnv{scheduler: s, fetcher: fetcher, dedup: dedup, published: published}
}

func matchDoc(itemID string) domain.RawDocument {
	return domain.RawDocument{
		ItemID:   itemID,
		SourceID: "feed-1",
		Text:     "OFAC sanctions update mentioning John Smith today",
		Relevant: true,
	}
}

func TestRunCycleEmitsAlert(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 33}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if env.dedup.Len() != 1 {
		t.Fatalf("recorded %d alerts, want 1", env.dedup.Len())
	}
	if env.published.count() != 1 {
		t.Fatalf("published %d alerts, want 1", env.published.count())
	}

	alert := env.published.alerts[0]
	if alert.Result.EntityUID != "1001" {
		t.Errorf("matched entity = %s, want 1001", alert.Result.EntityUID)
	}
	if alert.Result.Classification != domain.ClassMatch {
		t.Errorf("classification = %s, want MATCH", alert.Result.Classification)
	}
	if alert.DedupKey != domain.AlertDedupKey("item-1", "1001") {
		t.Error("dedup key should derive from item ID and entity UID")
	}
}

// Re-polling the same item must not re-fire its alert.
func TestRunCycleDeduplicatesRepolledContent(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 33}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	src := testSource()
	for i := 0; i < 3; i++ {
		if err := env.scheduler.runCycle(context.Background(), src); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}

	if env.dedup.Len() != 1 {
		t.Errorf("recorded %d alerts across re-polls, want 1", env.dedup.Len())
	}
	if env.published.count() != 1 {
		t.Errorf("published %d alerts across re-polls, want 1", env.published.count())
	}
}

// The same name in two distinct items is two distinct detections.
func TestRunCycleDistinctItemsAlertSeparately(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1"), matchDoc("item-2")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 33}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatal(err)
	}

	if env.dedup.Len() != 2 {
		t.Errorf("recorded %d alerts, want 2 (one per item)", env.dedup.Len())
	}
}

// A mid-band score without keyword relevance stays NONE and emits nothing.
func TestRunCycleRelevanceGate(t *testing.T) {
	doc := matchDoc("item-1")
	doc.Relevant = false
	fetcher := &fakeFetcher{docs: []domain.RawDocument{doc}}
	// A misspelling lands between the thresholds.
	extractor := spanExtractor{spans: []domain.Span{{Text: "Jon Smyth", Offset: 0}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatal(err)
	}
	if env.dedup.Len() != 0 {
		t.Errorf("recorded %d alerts, want 0 for irrelevant mid-score mention", env.dedup.Len())
	}
}

// The same misspelling with relevance set becomes a CANDIDATE alert.
func TestRunCycleCandidateWhenRelevant(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "Jon Smyth", Offset: 0}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatal(err)
	}
	if env.published.count() != 1 {
		t.Fatalf("published %d alerts, want 1", env.published.count())
	}
	if got := env.published.alerts[0].Result.Classification; got != domain.ClassCandidate {
		t.Errorf("classification = %s, want CANDIDATE", got)
	}
}

// Non-person list entries are never matched against extracted names.
func TestRunCycleSkipsNonPersonEntities(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "Acme Trading Llc", Offset: 0}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatal(err)
	}
	if env.dedup.Len() != 0 {
		t.Errorf("recorded %d alerts, want 0 for organization-kind entity", env.dedup.Len())
	}
}

func TestRunCycleFetchFailureRecorded(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.FetchFailed("feed unreachable", nil)}
	env := setupScheduler(t, fetcher, spanExtractor{}, testSnapshots(t))

	err := env.scheduler.runCycle(context.Background(), testSource())
	if err == nil {
		t.Fatal("cycle should fail when the fetch fails")
	}

	stats := env.scheduler.Stats()
	if len(stats) != 1 {
		t.Fatalf("got %d stat entries, want 1", len(stats))
	}
	if stats[0].LastError == "" {
		t.Error("stats should record the fetch error")
	}
	if stats[0].Phase != PhaseIdle {
		t.Errorf("phase after failed cycle = %s, want IDLE", stats[0].Phase)
	}
	if env.dedup.Len() != 0 {
		t.Error("no alerts should be recorded for a failed cycle")
	}
}

// One source's fetch failure never blocks another source, which keeps
// polling and emitting concurrently.
func TestCycleFailureIsolatedAcrossSources(t *testing.T) {
	classifier, err := classify.New(0.90, 0.60)
	if err != nil {
		t.Fatal(err)
	}

	sources := []config.Source{
		{ID: "feed-down", URL: "http://example.com/down", FetchInterval: config.Duration(time.Hour)},
		{ID: "feed-up", URL: "http://example.com/up", FetchInterval: config.Duration(time.Hour)},
	}
	fetcher := fetcherFunc(func(_ context.Context, src config.Source) ([]domain.RawDocument, error) {
		if src.ID == "feed-down" {
			return nil, errors.FetchFailed("feed unreachable", nil)
		}
		doc := matchDoc("item-1")
		doc.SourceID = src.ID
		return []domain.RawDocument{doc}, nil
	})

	dedup := store.NewMemoryDedup()
	published := &capturePublisher{}
	s := NewScheduler(Options{
		Sources:    sources,
		Fetcher:    fetcher,
		Extractor:  spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 33}}},
		Classifier: classifier,
		Snapshots:  testSnapshots(t),
		Dedup:      dedup,
		Publishers: []Publisher{published},
		Fetch:      config.FetchConfig{Timeout: time.Second, ExtractTimeout: time.Second},
		Logger:     slog.New(slog.DiscardHandler),
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if published.count() > 0 && statFor(s, "feed-down").LastError != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown did not drain: %v", err)
	}

	down := statFor(s, "feed-down")
	if down.LastError == "" {
		t.Error("failing source should record its fetch error")
	}
	if down.AlertsEmitted != 0 {
		t.Errorf("failing source emitted %d alerts, want 0", down.AlertsEmitted)
	}

	up := statFor(s, "feed-up")
	if up.LastError != "" {
		t.Errorf("healthy source carries error %q, want none", up.LastError)
	}
	if up.AlertsEmitted != 1 {
		t.Errorf("healthy source emitted %d alerts, want 1", up.AlertsEmitted)
	}
	if dedup.Len() != 1 {
		t.Errorf("recorded %d alerts, want 1", dedup.Len())
	}
	if published.count() != 1 {
		t.Errorf("published %d alerts, want 1", published.count())
	}
}

func statFor(s *Scheduler, sourceID string) SourceStats {
	for _, st := range s.Stats() {
		if st.SourceID == sourceID {
			return st
		}
	}
	return SourceStats{}
}

// With no snapshot loaded yet the cycle completes without matching.
func TestRunCycleSkipsMatchingWithoutSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 0}}}
	env := setupScheduler(t, fetcher, extractor, sanctions.NewSnapshots(nil))

	if err := env.scheduler.runCycle(context.Background(), testSource()); err != nil {
		t.Fatalf("cycle should succeed without a snapshot: %v", err)
	}
	if env.dedup.Len() != 0 {
		t.Error("no alerts without a snapshot")
	}

	stats := env.scheduler.Stats()
	if stats[0].Cycles != 1 {
		t.Errorf("cycles = %d, want 1", stats[0].Cycles)
	}
}

func TestTriggerNowUnknownSource(t *testing.T) {
	fetcher := &fakeFetcher{}
	env := setupScheduler(t, fetcher, spanExtractor{}, testSnapshots(t))

	err := env.scheduler.TriggerNow("nope")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown source should yield NotFound, got %v", err)
	}
	if err := env.scheduler.TriggerNow("feed-1"); err != nil {
		t.Errorf("known source trigger failed: %v", err)
	}
}

func TestStartAndShutdownDrains(t *testing.T) {
	fetcher := &fakeFetcher{docs: []domain.RawDocument{matchDoc("item-1")}}
	extractor := spanExtractor{spans: []domain.Span{{Text: "John Smith", Offset: 33}}}
	env := setupScheduler(t, fetcher, extractor, testSnapshots(t))

	ctx, cancel := context.WithCancel(context.Background())
	env.scheduler.Start(ctx)

	// The first cycle runs immediately on start.
	deadline := time.Now().Add(2 * time.Second)
	for env.published.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.published.count() == 0 {
		t.Fatal("no alert emitted from the startup cycle")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := env.scheduler.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown did not drain: %v", err)
	}
}
