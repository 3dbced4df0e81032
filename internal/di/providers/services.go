package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/service"
)

// ProvideAlertService provides the alert read service and warms the
// search index from the store.
func ProvideAlertService(i do.Injector) (*service.AlertService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*AlertIndexHandle](i)

	svc := service.NewAlertService(storeHandle.Store, indexHandle.AlertIndex, cfg.Screening.ResultsLimit, log.Logger)

	if err := svc.WarmIndex(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideScreeningService provides the direct SDN lookup service.
func ProvideScreeningService(i do.Injector) (*service.ScreeningService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	snapshots := do.MustInvoke[*sanctions.Snapshots](i)
	return service.NewScreeningService(snapshots, log.Logger), nil
}
