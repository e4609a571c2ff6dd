package barsource

import (
	"context"
	"fmt"

	"github.com/newthinker/tradelab/internal/artifact"
	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
)

// Archive reads bars/<SYMBOL>.csv from a storage backend
type Archive struct {
	store archive.Storage
}

// NewArchive creates an archive-backed source
func NewArchive(store archive.Storage) *Archive {
	return &Archive{store: store}
}

// Load reads and decodes the symbol's bar file
func (a *Archive) Load(ctx context.Context, symbol string) (core.BarSeries, error) {
	key := archive.BarKey(symbol)
	ok, err := a.store.Exists(ctx, key)
	if err != nil {
		return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("stat %s: %w", key, err))
	}
	if !ok {
		return core.BarSeries{}, core.WrapError(core.ErrNoData, fmt.Errorf("%s not found", key))
	}

	data, err := a.store.Read(ctx, key)
	if err != nil {
		return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("read %s: %w", key, err))
	}
	series, err := artifact.DecodeBars(symbol, data)
	if err != nil {
		return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("decode %s: %w", key, err))
	}
	return series, nil
}
