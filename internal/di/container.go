// Package di provides dependency injection configuration for the OFAC
// monitor.
package di

import (
	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/di/providers"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSources)
	do.Provide(injector, providers.ProvideClassifier)

	// Storage and streaming
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAlertIndex)

	// Sanctions list
	do.Provide(injector, providers.ProvideSnapshots)
	do.Provide(injector, providers.ProvideSyncer)

	// Business services
	do.Provide(injector, providers.ProvideAlertService)
	do.Provide(injector, providers.ProvideScreeningService)

	// Pipeline
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the monitor is
// running. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.Sources](injector)
	_ = do.MustInvoke[*classify.Classifier](injector)

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.AlertIndexHandle](injector)

	_ = do.MustInvoke[*sanctions.Snapshots](injector)
	_ = do.MustInvoke[*providers.SyncerHandle](injector)

	_ = do.MustInvoke[*service.AlertService](injector)
	_ = do.MustInvoke[*service.ScreeningService](injector)

	_ = do.MustInvoke[*providers.SchedulerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
