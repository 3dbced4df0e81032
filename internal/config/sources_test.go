package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSources(t, `[
  {"id": "feed-1", "url": "https://example.com/rss", "fetch_interval": "90s"},
  {"id": "feed-2", "url": "https://example.com/world.xml", "keywords": ["ofac", "sancionado"]}
]`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("loaded %d sources, want 2", len(sources))
	}

	if got := time.Duration(sources[0].FetchInterval); got != 90*time.Second {
		t.Errorf("interval = %v, want 90s", got)
	}
	if got := time.Duration(sources[1].FetchInterval); got != defaultFetchInterval {
		t.Errorf("missing interval should default to %v, got %v", defaultFetchInterval, got)
	}
	if len(sources[1].Keywords) != 2 {
		t.Errorf("keywords = %v, want 2 entries", sources[1].Keywords)
	}
}

func TestLoadSourcesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", `[{"url": "https://example.com/rss"}]`},
		{"missing url", `[{"id": "feed-1"}]`},
		{"bad url", `[{"id": "feed-1", "url": "not a url"}]`},
		{"duplicate ids", `[
  {"id": "feed-1", "url": "https://example.com/a"},
  {"id": "feed-1", "url": "https://example.com/b"}
]`},
		{"empty list", `[]`},
		{"bad duration", `[{"id": "feed-1", "url": "https://example.com/rss", "fetch_interval": "soon"}]`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSources(writeSources(t, tt.content)); err == nil {
				t.Error("LoadSources should fail")
			}
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadSources should fail for a missing file")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(3 * time.Minute)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var back Duration
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip gave %v, want %v", time.Duration(back), time.Duration(d))
	}
}
