package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/artifact"
	"github.com/newthinker/tradelab/internal/barsource"
	"github.com/newthinker/tradelab/internal/config"
	"github.com/newthinker/tradelab/internal/logger"
	"github.com/newthinker/tradelab/internal/metrics"
	"github.com/newthinker/tradelab/internal/pipeline"
	"github.com/newthinker/tradelab/internal/status"
	"github.com/newthinker/tradelab/internal/storage/archive"
	"github.com/newthinker/tradelab/internal/strategy"
)

// env bundles everything a batch command needs
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *strategy.Registry
	runner   *pipeline.Runner
	metrics  *metrics.Registry
	close    func() error
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if debug {
		return logger.New(true, "debug")
	}
	return logger.New(cfg.Log.Development, cfg.Log.Level)
}

// buildRegistry layers the catalog file and the strategies section over
// the built-in catalog
func buildRegistry(cfg *config.Config, log *zap.Logger) (*strategy.Registry, error) {
	reg := strategy.NewCatalogRegistry(log)

	if cfg.Catalog.Path != "" {
		defs, err := strategy.LoadDefinitionsFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		if err := reg.RegisterAll(defs); err != nil {
			return nil, err
		}
		log.Info("strategy catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("definitions", len(defs)))
	}

	defs, err := cfg.BuildStrategyDefinitions(reg)
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterAll(defs); err != nil {
		return nil, err
	}
	return reg, nil
}

func setup(ctx context.Context, workers int) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		cfg.Runner.Workers = workers
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	store, err := archive.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	barStore := store
	if cfg.Data.SeparateArchive() {
		barStore, err = archive.New(cfg.Data.Archive)
		if err != nil {
			return nil, fmt.Errorf("opening bar archive: %w", err)
		}
	}

	source, closeSource, err := barsource.Open(ctx, cfg.Data.Source(), barStore, log)
	if err != nil {
		return nil, fmt.Errorf("opening bar source: %w", err)
	}

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		closeSource()
		return nil, err
	}

	runner := pipeline.New(source, artifact.NewWriter(store), reg,
		cfg.Backtest.EntryRule(), cfg.Backtest.ExitRule(),
		pipeline.Options{
			Workers:        cfg.Runner.Workers,
			AllowLookahead: cfg.Runner.AllowLookahead,
			Debug:          cfg.Runner.Debug,
			StatusModule:   cfg.Status.Module,
		}, log)

	if cfg.Status.Enabled {
		runner.WithReporter(status.NewFileReporter(store, cfg.Status.Key, nil))
	}

	var m *metrics.Registry
	if cfg.Metrics.Enabled {
		m = metrics.NewRegistry()
		runner.WithMetrics(m)
	}

	return &env{
		cfg:      cfg,
		log:      log,
		registry: reg,
		runner:   runner,
		metrics:  m,
		close:    closeSource,
	}, nil
}

// finish flushes metrics and releases the bar source
func (e *env) finish() {
	if e.metrics != nil {
		if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
			e.log.Warn("writing metrics textfile failed", zap.Error(err))
		}
	}
	if err := e.close(); err != nil {
		e.log.Warn("closing bar source failed", zap.Error(err))
	}
	_ = e.log.Sync()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// pick returns the flag value when set, otherwise the configured list
func pick(flagValue, configured []string) []string {
	if len(flagValue) > 0 {
		return flagValue
	}
	return configured
}
