package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/search"
	"github.com/macarvajall/OFAC/internal/sse"
	"github.com/macarvajall/OFAC/internal/store"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the alert database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: db}, nil
}

// AlertIndexHandle wraps the alert search index with shutdown capability.
type AlertIndexHandle struct {
	*search.AlertIndex
}

// Shutdown implements do.Shutdownable.
func (h *AlertIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideAlertIndex provides the in-memory alert search index.
func ProvideAlertIndex(i do.Injector) (*AlertIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewAlertIndex(log.Logger)
	if err != nil {
		return nil, err
	}
	return &AlertIndexHandle{AlertIndex: index}, nil
}
