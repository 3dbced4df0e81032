// Package providers contains dependency injection providers for the
// OFAC monitor.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting OFAC monitor",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	return log, nil
}

// Sources holds the validated source list.
type Sources struct {
	List []config.Source
}

// ProvideSources loads and validates the sources file.
func ProvideSources(i do.Injector) (*Sources, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}

	log.Info("Sources loaded", "file", cfg.SourcesFile, "count", len(sources))
	return &Sources{List: sources}, nil
}

// ProvideClassifier builds the threshold classifier. Invalid thresholds
// fail startup; the pipeline must not run with an unordered policy.
func ProvideClassifier(i do.Injector) (*classify.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return classify.New(cfg.Screening.HighThreshold, cfg.Screening.LowThreshold)
}
