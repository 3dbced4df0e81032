package sdn

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/errors"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

type stubSource struct {
	entities []domain.SanctionEntity
	meta     Meta
	err      error
}

func (s *stubSource) Load(_ context.Context) ([]domain.SanctionEntity, Meta, error) {
	if s.err != nil {
		return nil, Meta{}, s.err
	}
	return s.entities, s.meta, nil
}

func stubEntities() []domain.SanctionEntity {
	return []domain.SanctionEntity{
		{UID: "1001", PrimaryName: "SMITH, John", Kind: domain.KindPerson},
	}
}

func TestRefreshSwapsSnapshot(t *testing.T) {
	source := &stubSource{entities: stubEntities(), meta: Meta{Records: 1, Origin: "stub"}}
	snaps := sanctions.NewSnapshots(nil)
	syncer := NewSyncer(source, snaps, time.Hour, slog.New(slog.DiscardHandler))

	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	ix := snaps.Current()
	if ix == nil {
		t.Fatal("snapshot should be loaded after a successful refresh")
	}
	if ix.Len() != 1 {
		t.Errorf("snapshot has %d entities, want 1", ix.Len())
	}

	stats := syncer.Stats()
	if stats.LastSuccess.IsZero() {
		t.Error("LastSuccess should be set")
	}
	if stats.LastError != "" {
		t.Errorf("LastError = %q, want empty", stats.LastError)
	}
	if stats.Meta.Origin != "stub" {
		t.Errorf("meta origin = %q, want stub", stats.Meta.Origin)
	}
}

// A failed refresh records the error and leaves the old snapshot serving.
func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	source := &stubSource{entities: stubEntities()}
	snaps := sanctions.NewSnapshots(nil)
	syncer := NewSyncer(source, snaps, time.Hour, slog.New(slog.DiscardHandler))

	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := snaps.Current()

	source.err = errors.FetchFailed("list server down", nil)
	if err := syncer.Refresh(context.Background()); err == nil {
		t.Fatal("refresh should propagate the load failure")
	}

	if snaps.Current() != before {
		t.Error("failed refresh must not replace the snapshot")
	}
	if syncer.Stats().LastError == "" {
		t.Error("LastError should record the failure")
	}
}

// The first successful refresh clears an earlier failure.
func TestRefreshClearsError(t *testing.T) {
	source := &stubSource{err: errors.FetchFailed("down", nil)}
	snaps := sanctions.NewSnapshots(nil)
	syncer := NewSyncer(source, snaps, time.Hour, slog.New(slog.DiscardHandler))

	_ = syncer.Refresh(context.Background()) //nolint:errcheck // Failure is the fixture
	if syncer.Stats().LastError == "" {
		t.Fatal("failure should be recorded")
	}

	source.err = nil
	source.entities = stubEntities()
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := syncer.Stats().LastError; got != "" {
		t.Errorf("LastError = %q after a successful refresh, want empty", got)
	}
}

func TestFileSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdn.xml")
	if err := os.WriteFile(path, []byte(sampleSDN), 0o644); err != nil {
		t.Fatal(err)
	}

	entities, meta, err := FileSource{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entities) != 3 {
		t.Errorf("loaded %d entities, want 3", len(entities))
	}
	if meta.Origin != path {
		t.Errorf("origin = %q, want the file path", meta.Origin)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	_, _, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.xml")}.Load(context.Background())
	if err == nil {
		t.Error("loading a missing file should fail")
	}
}
