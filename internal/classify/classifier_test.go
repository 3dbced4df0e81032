package classify

import (
	"testing"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
)

func TestNewRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name      string
		high, low float64
	}{
		{"high out of range", 1.5, 0.5},
		{"low out of range", 0.9, -0.1},
		{"equal", 0.7, 0.7},
		{"inverted", 0.5, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.high, tt.low)
			if err == nil {
				t.Fatalf("New(%v, %v) should fail", tt.high, tt.low)
			}
			if !errors.Is(err, errors.ErrInvalidThresholds) {
				t.Errorf("error should be InvalidThresholds, got %v", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	c, err := New(0.90, 0.60)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		score    float64
		relevant bool
		want     domain.Classification
	}{
		{"high score", 0.95, false, domain.ClassMatch},
		{"exactly high", 0.90, false, domain.ClassMatch},
		{"mid score relevant", 0.75, true, domain.ClassCandidate},
		{"exactly low relevant", 0.60, true, domain.ClassCandidate},
		{"mid score not relevant", 0.75, false, domain.ClassNone},
		{"low score relevant", 0.30, true, domain.ClassNone},
		{"low score not relevant", 0.30, false, domain.ClassNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.score, tt.relevant); got != tt.want {
				t.Errorf("Classify(%v, %v) = %s, want %s", tt.score, tt.relevant, got, tt.want)
			}
		})
	}
}

// For a fixed context the verdict never decreases as the score rises.
func TestClassifyMonotonic(t *testing.T) {
	c, err := New(0.90, 0.60)
	if err != nil {
		t.Fatal(err)
	}

	for _, relevant := range []bool{true, false} {
		prev := domain.ClassNone
		for score := 0.0; score <= 1.0; score += 0.01 {
			got := c.Classify(score, relevant)
			if got.Rank() < prev.Rank() {
				t.Fatalf("verdict decreased at score %v (relevant=%v): %s after %s",
					score, relevant, got, prev)
			}
			prev = got
		}
	}
}
