package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/newthinker/tradelab/internal/backtest"
	"github.com/newthinker/tradelab/internal/barsource"
	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
	"github.com/newthinker/tradelab/internal/strategy"
)

type Config struct {
	Log        LogConfig                 `mapstructure:"log"`
	Data       DataConfig                `mapstructure:"data"`
	Storage    archive.Config            `mapstructure:"storage"`
	Backtest   BacktestConfig            `mapstructure:"backtest"`
	Runner     RunnerConfig              `mapstructure:"runner"`
	Catalog    CatalogConfig             `mapstructure:"catalog"`
	Status     StatusConfig              `mapstructure:"status"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// DataConfig selects where bars come from. The archive type reads from
// Archive when its path or type is set, otherwise from the artifact storage.
type DataConfig struct {
	Type       string                     `mapstructure:"type"` // "archive" or "clickhouse"
	Archive    archive.Config             `mapstructure:"archive"`
	ClickHouse barsource.ClickHouseConfig `mapstructure:"clickhouse"`
}

// Source returns the bar source configuration
func (d DataConfig) Source() barsource.Config {
	return barsource.Config{Type: d.Type, ClickHouse: d.ClickHouse}
}

// SeparateArchive reports whether bars live outside the artifact storage
func (d DataConfig) SeparateArchive() bool {
	return d.Archive.Path != "" || d.Archive.Type == archive.TypeS3
}

type BacktestConfig struct {
	TakeProfit       float64 `mapstructure:"take_profit"`
	StopLoss         float64 `mapstructure:"stop_loss"`
	MaxHoldingBars   int     `mapstructure:"max_holding_bars"`
	EntryPrice       string  `mapstructure:"entry_price"` // "next_open" or "next_close"
	TieBreak         string  `mapstructure:"tie_break"`   // "take_profit_first" or "stop_loss_first"
	ChargeCommission bool    `mapstructure:"charge_commission"`
	Commission       float64 `mapstructure:"commission"`
	LongOnly         bool    `mapstructure:"long_only"`
}

// EntryRule converts the section to simulator rules
func (b BacktestConfig) EntryRule() backtest.EntryRule {
	return backtest.EntryRule{Price: backtest.EntryPrice(b.EntryPrice), LongOnly: b.LongOnly}
}

// ExitRule converts the section to simulator rules
func (b BacktestConfig) ExitRule() backtest.ExitRule {
	return backtest.ExitRule{
		TakeProfit:       b.TakeProfit,
		StopLoss:         b.StopLoss,
		MaxHoldingBars:   b.MaxHoldingBars,
		TieBreak:         backtest.TieBreak(b.TieBreak),
		Commission:       b.Commission,
		ChargeCommission: b.ChargeCommission,
	}
}

type RunnerConfig struct {
	Workers    int      `mapstructure:"workers"`
	Symbols    []string `mapstructure:"symbols"`
	Strategies []string `mapstructure:"strategies"` // empty means the whole catalog
	// AllowLookahead lets backtests run strategies with next_bar filters
	AllowLookahead bool `mapstructure:"allow_lookahead"`
	Debug          bool `mapstructure:"debug"`
}

// CatalogConfig points at an optional YAML file of strategy definitions
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Module  string `mapstructure:"module"`
	Key     string `mapstructure:"key"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

// StrategyConfig defines a strategy inline. Without a rule the entry
// overrides the params of a registered strategy of the same name.
type StrategyConfig struct {
	Description string                `mapstructure:"description"`
	Rule        string                `mapstructure:"rule"`
	Required    []string              `mapstructure:"required"`
	Lookback    int                   `mapstructure:"lookback"`
	Params      map[string]any        `mapstructure:"params"`
	Filters     []strategy.FilterSpec `mapstructure:"filters"`
	ExitOnBreak bool                  `mapstructure:"exit_on_break"`
	Replace     bool                  `mapstructure:"replace"`
}

// Load reads configuration from file over the defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("TRADELAB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	entry := backtest.DefaultEntryRule()
	exit := backtest.DefaultExitRule()
	return &Config{
		Log: LogConfig{Level: "info"},
		Data: DataConfig{
			Type: barsource.TypeArchive,
			ClickHouse: barsource.ClickHouseConfig{
				Addr:     []string{"localhost:9000"},
				Database: "market",
				Table:    "bars",
			},
		},
		Storage: archive.Config{
			Type: archive.TypeLocalFS,
			Path: "./data",
		},
		Backtest: BacktestConfig{
			TakeProfit:       exit.TakeProfit,
			StopLoss:         exit.StopLoss,
			MaxHoldingBars:   exit.MaxHoldingBars,
			EntryPrice:       string(entry.Price),
			TieBreak:         string(exit.TieBreak),
			ChargeCommission: exit.ChargeCommission,
			Commission:       exit.Commission,
		},
		Runner: RunnerConfig{
			Workers:        4,
			AllowLookahead: true,
		},
		Status: StatusConfig{
			Enabled: true,
			Module:  "tradelab",
			Key:     archive.StatusKey,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Runner.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("runner.workers must be positive, got %d", c.Runner.Workers))
	}

	if err := c.Backtest.EntryRule().Validate(); err != nil {
		return err
	}
	if err := c.Backtest.ExitRule().Validate(); err != nil {
		return err
	}

	switch c.Storage.Type {
	case "", archive.TypeLocalFS:
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.path required for localfs"))
		}
	case archive.TypeS3:
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	switch c.Data.Type {
	case "", barsource.TypeArchive:
	case barsource.TypeClickHouse:
		if err := c.Data.ClickHouse.Validate(); err != nil {
			return err
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown data type %q", c.Data.Type))
	}

	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("metrics.textfile required when metrics are enabled"))
	}
	if c.Status.Enabled && c.Status.Module == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("status.module required when status is enabled"))
	}

	return nil
}

// BuildStrategyDefinitions turns the strategies section into definitions
// ready for registration on top of base, in name order. Entries without a
// rule override the params of the base strategy of the same name.
func (c *Config) BuildStrategyDefinitions(base *strategy.Registry) ([]strategy.Definition, error) {
	names := make([]string, 0, len(c.Strategies))
	for name := range c.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]strategy.Definition, 0, len(names))
	for _, name := range names {
		sc := c.Strategies[name]

		var def strategy.Definition
		if sc.Rule == "" {
			existing, ok := base.Get(name)
			if !ok {
				return nil, core.WrapError(core.ErrStrategyNotFound,
					fmt.Errorf("strategies.%s overrides an unknown strategy", name))
			}
			def = existing
			def.Params = def.Params.Merge(sc.Params)
			def.Replace = true
		} else {
			def = strategy.Definition{
				Name:        name,
				Description: sc.Description,
				Rule:        sc.Rule,
				Lookback:    sc.Lookback,
				Params:      strategy.Params(sc.Params),
				Filters:     sc.Filters,
				ExitOnBreak: sc.ExitOnBreak,
				Replace:     sc.Replace,
			}
			for _, f := range sc.Required {
				def.Required = append(def.Required, core.Field(f))
			}
		}

		if err := def.Validate(); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
