// Package barsource loads the bar history of a symbol from an archive of
// CSV files or from a ClickHouse table.
package barsource

import (
	"context"

	"github.com/newthinker/tradelab/internal/core"
)

// Source loads bars for one symbol. Implementations return series as
// stored; sorting is left to the evaluator.
type Source interface {
	Load(ctx context.Context, symbol string) (core.BarSeries, error)
}
