package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
)

func testIndex(t *testing.T) *AlertIndex {
	t.Helper()
	ix, err := NewAlertIndex(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ix.Close() }) //nolint:errcheck // Test cleanup
	return ix
}

func mustIndex(t *testing.T, ix *AlertIndex, a domain.AlertRecord) {
	t.Helper()
	if err := ix.IndexAlert(&a); err != nil {
		t.Fatal(err)
	}
}

func testAlert(i int, sourceID string, class domain.Classification) domain.AlertRecord {
	return domain.AlertRecord{
		ID: fmt.Sprintf("alert-%02d", i),
		Mention: domain.Mention{
			Raw:        "John Smith",
			Normalized: "john smith",
			SourceID:   sourceID,
			ItemID:     fmt.Sprintf("item-%d", i),
			Context:    "named in a money laundering indictment",
		},
		Result: domain.MatchResult{
			EntityUID:      "1001",
			EntityName:     "SMITH, John",
			Score:          0.95,
			Classification: class,
		},
		FirstSeen: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
}

func TestSearchByName(t *testing.T) {
	ix := testIndex(t)
	for i := 0; i < 3; i++ {
		mustIndex(t, ix, testAlert(i, "feed-1", domain.ClassMatch))
	}

	result, err := ix.Search(context.Background(), Params{Query: "smith", Limit: 10})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if len(result.Hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(result.Hits))
	}
	// Newest first.
	if result.Hits[0].ID != "alert-02" {
		t.Errorf("first hit = %s, want alert-02", result.Hits[0].ID)
	}
	if result.Hits[0].EntityUID != "1001" {
		t.Errorf("entity UID = %s, want 1001", result.Hits[0].EntityUID)
	}
}

// A one-letter typo in the query still finds the alert.
func TestSearchFuzzy(t *testing.T) {
	ix := testIndex(t)
	mustIndex(t, ix, testAlert(0, "feed-1", domain.ClassMatch))

	result, err := ix.Search(context.Background(), Params{Query: "smyth", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 {
		t.Errorf("fuzzy query found %d alerts, want 1", result.Total)
	}
}

func TestSearchFilters(t *testing.T) {
	ix := testIndex(t)
	if err := ix.IndexAlerts([]domain.AlertRecord{
		testAlert(0, "feed-1", domain.ClassMatch),
		testAlert(1, "feed-2", domain.ClassMatch),
		testAlert(2, "feed-2", domain.ClassCandidate),
	}); err != nil {
		t.Fatal(err)
	}

	bySource, err := ix.Search(context.Background(), Params{Query: "smith", SourceID: "feed-2", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if bySource.Total != 2 {
		t.Errorf("source filter found %d, want 2", bySource.Total)
	}

	byClass, err := ix.Search(context.Background(), Params{
		Query: "smith", SourceID: "feed-2", Classification: "CANDIDATE", Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if byClass.Total != 1 {
		t.Errorf("combined filters found %d, want 1", byClass.Total)
	}
}

// An empty query with filters lists rather than matches.
func TestSearchEmptyQuery(t *testing.T) {
	ix := testIndex(t)
	if err := ix.IndexAlerts([]domain.AlertRecord{
		testAlert(0, "feed-1", domain.ClassMatch),
		testAlert(1, "feed-2", domain.ClassCandidate),
	}); err != nil {
		t.Fatal(err)
	}

	result, err := ix.Search(context.Background(), Params{SourceID: "feed-1", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 {
		t.Errorf("filter-only search found %d, want 1", result.Total)
	}
}

func TestSearchPagination(t *testing.T) {
	ix := testIndex(t)
	for i := 0; i < 5; i++ {
		mustIndex(t, ix, testAlert(i, "feed-1", domain.ClassMatch))
	}

	page, err := ix.Search(context.Background(), Params{Query: "smith", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
	if len(page.Hits) != 2 {
		t.Fatalf("page has %d hits, want 2", len(page.Hits))
	}
	if page.Hits[0].ID != "alert-02" {
		t.Errorf("page starts at %s, want alert-02", page.Hits[0].ID)
	}
}

func TestCount(t *testing.T) {
	ix := testIndex(t)
	mustIndex(t, ix, testAlert(0, "feed-1", domain.ClassMatch))
	n, err := ix.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
