package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/tradelab/internal/barsource"
	"github.com/newthinker/tradelab/internal/core"
)

// seriesCache loads each symbol once per batch. The cached series is
// shared read-only by every strategy of that symbol.
type seriesCache struct {
	source barsource.Source

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	series core.BarSeries
	err    error
}

func newSeriesCache(source barsource.Source) *seriesCache {
	return &seriesCache{source: source, entries: make(map[string]*cacheEntry)}
}

func (c *seriesCache) load(ctx context.Context, symbol string) (core.BarSeries, error) {
	c.mu.Lock()
	e, ok := c.entries[symbol]
	if !ok {
		e = &cacheEntry{}
		c.entries[symbol] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		defer func() {
			if v := recover(); v != nil {
				e.series = core.BarSeries{}
				e.err = core.WrapError(core.ErrIO, fmt.Errorf("load %s: panic: %v", symbol, v))
			}
		}()
		e.series, e.err = c.source.Load(ctx, symbol)
	})
	return e.series, e.err
}
