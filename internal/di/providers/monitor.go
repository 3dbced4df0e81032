package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/extract"
	"github.com/macarvajall/OFAC/internal/fetch"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/monitor"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

// SchedulerHandle wraps the monitor scheduler with its lifecycle.
type SchedulerHandle struct {
	*monitor.Scheduler
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable. Cancels the polling loops and
// waits for in-flight cycles to drain.
func (h *SchedulerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Scheduler.Shutdown(ctx)
}

// ProvideScheduler provides the polling scheduler and starts it.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sources := do.MustInvoke[*Sources](i)
	classifier := do.MustInvoke[*classify.Classifier](i)
	snapshots := do.MustInvoke[*sanctions.Snapshots](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*AlertIndexHandle](i)

	scheduler := monitor.NewScheduler(monitor.Options{
		Sources:    sources.List,
		Fetcher:    fetch.NewRSSFetcher(cfg.Fetch.Timeout, log.Logger),
		Extractor:  extract.NewHeuristic(),
		Classifier: classifier,
		Snapshots:  snapshots,
		Dedup:      storeHandle.Store,
		Publishers: []monitor.Publisher{sseHandle.Manager, indexHandle.AlertIndex},
		Fetch:      cfg.Fetch,
		Logger:     log.Logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	return &SchedulerHandle{Scheduler: scheduler, cancel: cancel}, nil
}
