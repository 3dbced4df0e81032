package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/logger"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/sdn"
)

// ProvideSnapshots provides the sanctions snapshot holder.
func ProvideSnapshots(i do.Injector) (*sanctions.Snapshots, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return sanctions.NewSnapshots(log.Logger), nil
}

// SyncerHandle wraps the SDN syncer with its refresh loop lifecycle.
type SyncerHandle struct {
	*sdn.Syncer
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SyncerHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideSyncer provides the SDN list refresher and starts its loop.
// A configured local path takes the file loader with change watching;
// otherwise the list is downloaded.
func ProvideSyncer(i do.Injector) (*SyncerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	snapshots := do.MustInvoke[*sanctions.Snapshots](i)

	var source sdn.SnapshotSource
	if cfg.SDN.LocalPath != "" {
		source = sdn.FileSource{Path: cfg.SDN.LocalPath}
	} else {
		source = sdn.NewClient(cfg.SDN.ZipURL, cfg.SDN.XMLURL, log.Logger)
	}

	syncer := sdn.NewSyncer(source, snapshots, cfg.SDN.RefreshInterval, log.Logger)
	if cfg.SDN.LocalPath != "" {
		syncer.WatchFile(cfg.SDN.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go syncer.Run(ctx)

	log.Info("SDN syncer started",
		"refresh_interval", cfg.SDN.RefreshInterval,
		"local_path", cfg.SDN.LocalPath,
	)

	return &SyncerHandle{Syncer: syncer, cancel: cancel}, nil
}
