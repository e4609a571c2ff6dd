package barsource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
)

// Source types
const (
	TypeArchive    = "archive"
	TypeClickHouse = "clickhouse"
)

// Config selects the bar source
type Config struct {
	Type       string           `mapstructure:"type"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

// Open builds the configured source. The archive type reads from store.
// The returned closer is never nil.
func Open(ctx context.Context, cfg Config, store archive.Storage, logger *zap.Logger) (Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Type {
	case "", TypeArchive:
		if store == nil {
			return nil, noop, core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive source needs a storage backend"))
		}
		return NewArchive(store), noop, nil
	case TypeClickHouse:
		ch, err := NewClickHouse(ctx, cfg.ClickHouse, logger)
		if err != nil {
			return nil, noop, err
		}
		return ch, ch.Close, nil
	default:
		return nil, noop, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown data source %q", cfg.Type))
	}
}
