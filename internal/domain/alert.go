package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// AlertRecord is the persisted unit of output: one unique
// (source item, entity) detection. Records are created once and never
// mutated; a repeat detection for the same dedup key is a no-op.
type AlertRecord struct {
	ID string `json:"id"`

	// DedupKey is Hash of (source item ID, entity UID). At most one
	// record exists per key at any time.
	DedupKey string `json:"dedup_key"`

	Mention Mention     `json:"mention"`
	Result  MatchResult `json:"result"`

	// FirstSeen is when the detection was first recorded. Later
	// detections of the same pair never update it.
	FirstSeen time.Time `json:"first_seen"`
}

// AlertDedupKey derives the stable dedup key for a (source item, entity)
// pair. The key survives process restarts so re-polled content does not
// re-fire alerts.
func AlertDedupKey(itemID, entityUID string) string {
	h := sha256.New()
	h.Write([]byte(itemID))
	h.Write([]byte{'|'})
	h.Write([]byte(entityUID))
	return hex.EncodeToString(h.Sum(nil))
}
