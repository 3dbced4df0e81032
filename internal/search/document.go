// Package search provides full-text lookup over emitted alerts using
// Bleve. The index is memory-only and rebuilt from the alert store at
// startup; the store stays the single durable copy.
package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/macarvajall/OFAC/internal/domain"
)

// AlertDocument is the indexed projection of one alert record.
type AlertDocument struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	EntityName     string  `json:"entity_name"`
	EntityUID      string  `json:"entity_uid"`
	SourceID       string  `json:"source_id"`
	Classification string  `json:"classification"`
	Context        string  `json:"context,omitempty"`
	Score          float64 `json:"score"`
	FirstSeen      int64   `json:"first_seen"` // Unix millis
}

// FromAlert projects an alert record into its indexed form.
func FromAlert(a *domain.AlertRecord) *AlertDocument {
	return &AlertDocument{
		ID:             a.ID,
		Name:           a.Mention.Raw,
		EntityName:     a.Result.EntityName,
		EntityUID:      a.Result.EntityUID,
		SourceID:       a.Mention.SourceID,
		Classification: string(a.Result.Classification),
		Context:        a.Mention.Context,
		Score:          a.Result.Score,
		FirstSeen:      a.FirstSeen.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names so
// they match the index mapping.
func (d *AlertDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":             d.ID,
		"name":           d.Name,
		"entity_name":    d.EntityName,
		"entity_uid":     d.EntityUID,
		"source_id":      d.SourceID,
		"classification": d.Classification,
		"score":          d.Score,
		"first_seen":     d.FirstSeen,
	}
	if d.Context != "" {
		m["context"] = d.Context
	}
	return m
}

// buildIndexMapping creates the Bleve mapping for alert documents.
// Names use the simple analyzer (no stemming: person names are not
// English prose); source and classification are exact keywords for
// filtering; score and first_seen support range queries and sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name
	nameField.Store = true
	docMapping.AddFieldMappingsAt("name", nameField)

	entityNameField := bleve.NewTextFieldMapping()
	entityNameField.Analyzer = simple.Name
	entityNameField.Store = true
	docMapping.AddFieldMappingsAt("entity_name", entityNameField)

	contextField := bleve.NewTextFieldMapping()
	contextField.Analyzer = simple.Name
	contextField.Store = false
	docMapping.AddFieldMappingsAt("context", contextField)

	for _, f := range []string{"id", "entity_uid", "source_id", "classification"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		docMapping.AddFieldMappingsAt(f, kw)
	}

	scoreField := bleve.NewNumericFieldMapping()
	scoreField.Store = true
	docMapping.AddFieldMappingsAt("score", scoreField)

	firstSeenField := bleve.NewNumericFieldMapping()
	firstSeenField.Store = true
	docMapping.AddFieldMappingsAt("first_seen", firstSeenField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
