// Package store persists alert records and dedup state in Badger.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/macarvajall/OFAC/internal/domain"
)

// alertPrefix namespaces alert keys. The key suffix is the dedup key,
// so key uniqueness is exactly the "one record per (source item,
// entity) pair" invariant.
const alertPrefix = "alert:"

// commitRetries bounds optimistic-transaction retries under write
// contention on the same key.
const commitRetries = 8

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Alerts holds the persisted alert records, keyed by dedup key.
	Alerts *Entity[domain.AlertRecord]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Dedup uniqueness must survive crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.Alerts = NewEntity[domain.AlertRecord](s, alertPrefix)

	if logger != nil {
		logger.Info("alert database opened", "path", path)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordIfNew stores the record under its dedup key if the key is
// unseen and returns true; if the key already exists it returns false
// and mutates nothing, preserving first-seen semantics.
//
// The check-and-set runs inside a single Badger transaction. Under
// concurrent calls with the same key exactly one caller commits; the
// losers hit the optimistic-conflict path, retry, and observe the
// winner's record.
func (s *Store) RecordIfNew(ctx context.Context, key string, record *domain.AlertRecord) (bool, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		inserted, err := s.Alerts.createTxn(key, record)
		if err == nil {
			return inserted, nil
		}
		if err != badger.ErrConflict || attempt >= commitRetries {
			return false, fmt.Errorf("record alert %s: %w", key, err)
		}
		// Another writer raced us on this key; back off briefly and
		// re-check, which normally resolves to "already recorded".
		time.Sleep(time.Millisecond << uint(attempt))
	}
}
