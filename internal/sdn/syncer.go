package sdn

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

// FileSource loads the list from a local XML file, for air-gapped
// deployments where the list is delivered out of band.
type FileSource struct {
	Path string
}

// Load reads and parses the file.
func (f FileSource) Load(_ context.Context) ([]domain.SanctionEntity, Meta, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("read SDN file: %w", err)
	}
	entities, meta, err := Parse(raw)
	if err != nil {
		return nil, Meta{}, err
	}
	meta.Origin = f.Path
	return entities, meta, nil
}

// Stats reports refresh health for the status API.
type Stats struct {
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Meta        Meta      `json:"meta"`
}

// Syncer refreshes the sanctions snapshot on its own cadence. A failed
// refresh is fatal to that attempt only: the previous snapshot keeps
// serving and the failure is recorded for observability. The monitor
// never runs with a zero index — before the first successful load,
// matching cycles skip.
type Syncer struct {
	source    SnapshotSource
	snapshots *sanctions.Snapshots
	interval  time.Duration
	watchPath string
	logger    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewSyncer creates a snapshot refresher.
func NewSyncer(source SnapshotSource, snapshots *sanctions.Snapshots, interval time.Duration, logger *slog.Logger) *Syncer {
	return &Syncer{
		source:    source,
		snapshots: snapshots,
		interval:  interval,
		logger:    logger,
	}
}

// WatchFile additionally reloads the snapshot when the given local file
// changes, so an out-of-band list drop takes effect before the next
// scheduled refresh.
func (s *Syncer) WatchFile(path string) {
	s.watchPath = path
}

// Run refreshes immediately, then on every interval tick (and on file
// change events when watching), until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial SDN refresh failed", "error", err)
	}

	changes := s.watchChanges(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-changes:
			s.logger.Info("SDN file changed, reloading")
		case <-ctx.Done():
			return
		}
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("SDN refresh failed, keeping previous snapshot", "error", err)
		}
	}
}

// Refresh loads one snapshot and swaps it in. On any failure the
// current snapshot is left untouched.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.stats.LastAttempt = time.Now().UTC()
	s.mu.Unlock()

	entities, meta, err := s.source.Load(ctx)
	if err != nil {
		s.recordError(err)
		return err
	}

	ix, err := sanctions.Build(entities)
	if err != nil {
		s.recordError(err)
		return err
	}

	s.snapshots.Swap(ix)

	s.mu.Lock()
	s.stats.LastSuccess = time.Now().UTC()
	s.stats.LastError = ""
	s.stats.Meta = meta
	s.mu.Unlock()
	return nil
}

// Stats returns a copy of the refresh health counters.
func (s *Syncer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Syncer) recordError(err error) {
	s.mu.Lock()
	s.stats.LastError = err.Error()
	s.mu.Unlock()
}

// watchChanges emits a signal when the watched file settles after a
// change. Returns a nil channel (never ready) when not watching.
func (s *Syncer) watchChanges(ctx context.Context) <-chan struct{} {
	if s.watchPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("SDN file watch unavailable", "error", err)
		return nil
	}
	// Watch the directory: editors and atomic replacers recreate the
	// file, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.watchPath)); err != nil {
		s.logger.Warn("SDN file watch failed", "path", s.watchPath, "error", err)
		_ = watcher.Close()
		return nil
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()

		var settle *time.Timer
		for {
			select {
			case event := <-watcher.Events:
				if filepath.Clean(event.Name) != filepath.Clean(s.watchPath) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// Debounce: wait for writes to settle before reloading.
				if settle != nil {
					settle.Stop()
				}
				settle = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case changes <- struct{}{}:
					default:
					}
				})
			case err := <-watcher.Errors:
				s.logger.Warn("SDN file watch error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes
}
