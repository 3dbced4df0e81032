package config

import (
	"encoding/json/v2"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Source describes one polled feed.
type Source struct {
	ID  string `json:"id" validate:"required"`
	URL string `json:"url" validate:"required,url"`

	// FetchInterval is the source's independent polling cadence.
	FetchInterval Duration `json:"fetch_interval"`

	// Keywords gate relevance for CANDIDATE classification. Empty means
	// the monitor-wide default keyword list applies.
	Keywords []string `json:"keywords,omitempty"`
}

// Duration wraps time.Duration with "3m"-style JSON encoding.
type Duration time.Duration

// UnmarshalJSON parses a duration string like "90s" or "3m".
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// defaultFetchInterval matches the original monitor's 3-minute mention
// refresh cadence.
const defaultFetchInterval = 3 * time.Minute

// LoadSources reads and validates the sources JSON file. Sources with
// no interval get the default cadence.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sources []Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	validate := validator.New()
	seen := make(map[string]bool, len(sources))
	for i := range sources {
		if err := validate.Struct(&sources[i]); err != nil {
			return nil, fmt.Errorf("invalid source %q: %w", sources[i].ID, err)
		}
		if seen[sources[i].ID] {
			return nil, fmt.Errorf("duplicate source id %q", sources[i].ID)
		}
		seen[sources[i].ID] = true
		if sources[i].FetchInterval <= 0 {
			sources[i].FetchInterval = Duration(defaultFetchInterval)
		}
	}
	return sources, nil
}
