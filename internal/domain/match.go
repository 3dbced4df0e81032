package domain

// Classification is the screening verdict for a scored mention.
type Classification string

// Verdicts, ordered NONE < CANDIDATE < MATCH.
const (
	ClassNone      Classification = "NONE"
	ClassCandidate Classification = "CANDIDATE"
	ClassMatch     Classification = "MATCH"
)

// Rank orders classifications for comparison: NONE < CANDIDATE < MATCH.
func (c Classification) Rank() int {
	switch c {
	case ClassCandidate:
		return 1
	case ClassMatch:
		return 2
	default:
		return 0
	}
}

// Label returns the analyst-facing display label.
func (c Classification) Label() string {
	switch c {
	case ClassMatch:
		return "Posible match OFAC"
	case ClassCandidate:
		return "Candidato por contexto"
	default:
		return ""
	}
}

// MatchResult is the immutable output of scoring a mention against the
// sanctions index. Either discarded (NONE) or forwarded inside an alert.
type MatchResult struct {
	// EntityUID identifies the best-matching entity; empty when no
	// candidate scored above zero.
	EntityUID string `json:"entity_uid,omitempty"`

	// EntityName is the matched entity's primary name, denormalized for
	// display.
	EntityName string `json:"entity_name,omitempty"`

	// Score is the best similarity in [0,1].
	Score float64 `json:"score"`

	// AliasScores records the per-alias score distribution for audit.
	AliasScores map[string]float64 `json:"alias_scores,omitempty"`

	Classification Classification `json:"classification"`
}
