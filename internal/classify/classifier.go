// Package classify turns a similarity score and a context signal into a
// screening verdict.
package classify

import (
	"fmt"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
)

// Classifier applies the configured threshold policy:
//
//	score >= high                -> MATCH
//	low <= score < high          -> CANDIDATE, only when the mention
//	                                passed the keyword-relevance gate
//	score < low                  -> NONE, regardless of context
type Classifier struct {
	high float64
	low  float64
}

// New validates the thresholds and builds a classifier. Both thresholds
// must lie in [0,1] with high > low; otherwise construction fails with
// an InvalidThresholds error and the pipeline must not run.
func New(high, low float64) (*Classifier, error) {
	if high < 0 || high > 1 || low < 0 || low > 1 {
		return nil, errors.InvalidThresholds(
			fmt.Sprintf("thresholds must lie in [0,1], got high=%v low=%v", high, low))
	}
	if high <= low {
		return nil, errors.InvalidThresholds(
			fmt.Sprintf("high threshold must exceed low, got high=%v low=%v", high, low))
	}
	return &Classifier{high: high, low: low}, nil
}

// Classify maps a score and the keyword-relevance flag to a verdict.
// For a fixed context the mapping is monotonic in the score under the
// ordering NONE < CANDIDATE < MATCH.
func (c *Classifier) Classify(score float64, relevant bool) domain.Classification {
	switch {
	case score >= c.high:
		return domain.ClassMatch
	case score >= c.low && relevant:
		return domain.ClassCandidate
	default:
		return domain.ClassNone
	}
}

// High returns the configured MATCH threshold.
func (c *Classifier) High() float64 { return c.high }

// Low returns the configured CANDIDATE threshold.
func (c *Classifier) Low() float64 { return c.low }
