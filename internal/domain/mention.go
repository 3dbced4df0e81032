package domain

import "time"

// RawDocument is one fetched source item before extraction.
type RawDocument struct {
	// ItemID is a stable identifier for the source item, derived from the
	// feed, link, and text so the same item hashes identically across polls.
	ItemID string `json:"item_id"`

	SourceID    string    `json:"source_id"`
	Text        string    `json:"text"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`

	// Relevant reports whether the document passed the source's keyword
	// gate. It rides along to the classifier, which only promotes
	// mid-score hits to CANDIDATE when the flag is set.
	Relevant bool `json:"relevant"`
}

// Span is one extracted name occurrence inside a document's text.
type Span struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// Mention is one extracted person-name candidate occurrence. It is
// transient: consumed within a single pipeline cycle and persisted only
// as part of an AlertRecord.
type Mention struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`

	SourceID    string    `json:"source_id"`
	ItemID      string    `json:"item_id"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`

	// Context is a snippet of the surrounding document text.
	Context string `json:"context,omitempty"`

	// Relevant carries the keyword gate verdict from the source document.
	Relevant bool `json:"relevant"`
}
