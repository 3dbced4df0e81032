package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/search"
	"github.com/macarvajall/OFAC/internal/store"
)

func setupAlertService(t *testing.T, limit int) (*AlertService, *store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() }) //nolint:errcheck // Test cleanup

	index, err := search.NewAlertIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() }) //nolint:errcheck // Test cleanup

	return NewAlertService(s, index, limit, slog.New(slog.DiscardHandler)), s
}

// seedAlerts writes n alerts, alternating source and classification,
// each one minute older than the previous.
func seedAlerts(t *testing.T, s *store.Store, n int) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		sourceID := "feed-1"
		class := domain.ClassMatch
		if i%2 == 1 {
			sourceID = "feed-2"
			class = domain.ClassCandidate
		}
		key := fmt.Sprintf("key-%d", i)
		record := &domain.AlertRecord{
			ID:       fmt.Sprintf("alert-%02d", i),
			DedupKey: key,
			Mention: domain.Mention{
				Raw:        "John Smith",
				Normalized: "john smith",
				SourceID:   sourceID,
				ItemID:     fmt.Sprintf("item-%d", i),
				Context:    "mentioned in a sanctions report",
			},
			Result: domain.MatchResult{
				EntityUID:      "1001",
				EntityName:     "SMITH, John",
				Score:          0.95,
				Classification: class,
			},
			FirstSeen: base.Add(-time.Duration(i) * time.Minute),
		}
		inserted, err := s.RecordIfNew(context.Background(), key, record)
		require.NoError(t, err)
		require.True(t, inserted)
	}
}

func TestAlertListNewestFirst(t *testing.T) {
	svc, s := setupAlertService(t, 100)
	seedAlerts(t, s, 5)

	alerts, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 5)

	for i := 1; i < len(alerts); i++ {
		assert.True(t, !alerts[i].FirstSeen.After(alerts[i-1].FirstSeen),
			"alerts must be ordered newest first")
	}
	assert.Equal(t, "alert-00", alerts[0].ID)
}

func TestAlertListFilters(t *testing.T) {
	svc, s := setupAlertService(t, 100)
	seedAlerts(t, s, 6)

	bySource, err := svc.List(context.Background(), ListFilter{SourceID: "feed-2"})
	require.NoError(t, err)
	require.Len(t, bySource, 3)
	for _, a := range bySource {
		assert.Equal(t, "feed-2", a.Mention.SourceID)
	}

	byClass, err := svc.List(context.Background(), ListFilter{Classification: domain.ClassMatch})
	require.NoError(t, err)
	require.Len(t, byClass, 3)
	for _, a := range byClass {
		assert.Equal(t, domain.ClassMatch, a.Result.Classification)
	}
}

func TestAlertListCapped(t *testing.T) {
	svc, s := setupAlertService(t, 4)
	seedAlerts(t, s, 10)

	alerts, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, alerts, 4, "the service cap bounds unlimited listings")

	alerts, err = svc.List(context.Background(), ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	alerts, err = svc.List(context.Background(), ListFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, alerts, 4, "a requested limit above the cap is clamped")
}

func TestAlertCount(t *testing.T) {
	svc, s := setupAlertService(t, 100)
	seedAlerts(t, s, 3)

	count, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWarmIndexThenSearch(t *testing.T) {
	svc, s := setupAlertService(t, 100)
	seedAlerts(t, s, 4)

	require.NoError(t, svc.WarmIndex(context.Background()))

	result, err := svc.Search(context.Background(), search.Params{Query: "smith"})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.Total, "all persisted alerts should be searchable after warmup")
}

func TestExportCSV(t *testing.T) {
	svc, s := setupAlertService(t, 2)
	seedAlerts(t, s, 5)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6, "header plus one row per alert; export ignores the listing cap")

	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "classification", rows[0][7])

	// Newest first, full precision score.
	assert.Equal(t, "alert-00", rows[1][0])
	assert.Equal(t, "0.9500", rows[1][6])
	assert.Equal(t, "MATCH", rows[1][7])
}
