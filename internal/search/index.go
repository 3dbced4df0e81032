package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/macarvajall/OFAC/internal/domain"
)

// AlertIndex wraps a memory-only Bleve index over alert documents.
// All public methods are safe for concurrent use.
type AlertIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewAlertIndex creates an empty in-memory index.
func NewAlertIndex(logger *slog.Logger) (*AlertIndex, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create alert index: %w", err)
	}
	return &AlertIndex{index: index, logger: logger}, nil
}

// Close releases the index.
func (s *AlertIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexAlert indexes a single alert.
func (s *AlertIndex) IndexAlert(a *domain.AlertRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FromAlert(a)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexAlerts indexes a batch of alerts, used to warm the index from
// the store at startup.
func (s *AlertIndex) IndexAlerts(alerts []domain.AlertRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(alerts); i += batchSize {
		end := min(i+batchSize, len(alerts))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			doc := FromAlert(&alerts[j])
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// PublishAlert indexes a newly emitted alert, logging rather than
// propagating failures so the pipeline never stalls on search.
func (s *AlertIndex) PublishAlert(a domain.AlertRecord) {
	if err := s.IndexAlert(&a); err != nil {
		s.logger.Warn("failed to index alert", "alert", a.ID, "error", err)
	}
}

// Count returns the number of indexed alerts.
func (s *AlertIndex) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Params configures an alert search.
type Params struct {
	Query          string
	SourceID       string
	Classification string
	Limit          int
	Offset         int
}

// Hit is one alert search result.
type Hit struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	EntityName     string  `json:"entity_name"`
	EntityUID      string  `json:"entity_uid"`
	SourceID       string  `json:"source_id"`
	Classification string  `json:"classification"`
	Score          float64 `json:"score"`
	FirstSeen      int64   `json:"first_seen"`
	Relevance      float64 `json:"relevance"`
}

// Result is an alert search response.
type Result struct {
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search runs a full-text query over the alerts, newest first.
func (s *AlertIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-first_seen"})
	req.Fields = []string{
		"id", "name", "entity_name", "entity_uid",
		"source_id", "classification", "score", "first_seen",
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute alert search: %w", err)
	}

	out := &Result{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Relevance: h.Score}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["entity_name"].(string); ok {
			hit.EntityName = v
		}
		if v, ok := h.Fields["entity_uid"].(string); ok {
			hit.EntityUID = v
		}
		if v, ok := h.Fields["source_id"].(string); ok {
			hit.SourceID = v
		}
		if v, ok := h.Fields["classification"].(string); ok {
			hit.Classification = v
		}
		if v, ok := h.Fields["score"].(float64); ok {
			hit.Score = v
		}
		if v, ok := h.Fields["first_seen"].(float64); ok {
			hit.FirstSeen = int64(v)
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// buildQuery combines the free-text query with exact filters.
func buildQuery(params Params) query.Query {
	var must []query.Query

	if params.Query != "" {
		text := bleve.NewMatchQuery(params.Query)
		// Name and entity name both count; fuzziness absorbs typos in
		// analyst queries.
		text.SetFuzziness(1)
		must = append(must, text)
	}
	if params.SourceID != "" {
		tq := bleve.NewTermQuery(params.SourceID)
		tq.SetField("source_id")
		must = append(must, tq)
	}
	if params.Classification != "" {
		tq := bleve.NewTermQuery(params.Classification)
		tq.SetField("classification")
		must = append(must, tq)
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(must) == 1 {
		return must[0]
	}
	return bleve.NewConjunctionQuery(must...)
}
