package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/api"
	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/service"
	"github.com/macarvajall/OFAC/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	schedulerHandle := do.MustInvoke[*SchedulerHandle](i)
	syncerHandle := do.MustInvoke[*SyncerHandle](i)
	snapshots := do.MustInvoke[*sanctions.Snapshots](i)
	classifier := do.MustInvoke[*classify.Classifier](i)
	sources := do.MustInvoke[*Sources](i)
	alertService := do.MustInvoke[*service.AlertService](i)
	screeningService := do.MustInvoke[*service.ScreeningService](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)

	handler := api.NewServer(
		storeHandle.Store,
		&api.Services{
			Alerts:    alertService,
			Screening: screeningService,
		},
		schedulerHandle.Scheduler,
		syncerHandle.Syncer,
		snapshots,
		classifier,
		sources.List,
		sseHandler,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
