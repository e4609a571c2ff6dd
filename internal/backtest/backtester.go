package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/strategy"
)

// BarProvider loads the bar history of one symbol
type BarProvider interface {
	Load(ctx context.Context, symbol string) (core.BarSeries, error)
}

// Backtester chains evaluation, simulation and aggregation for one pair
type Backtester struct {
	provider  BarProvider
	simulator *Simulator
	opts      strategy.Options
}

// New creates a Backtester. Lookahead filters are allowed since the run
// is retrospective.
func New(provider BarProvider, entry EntryRule, exit ExitRule) *Backtester {
	return &Backtester{
		provider:  provider,
		simulator: NewSimulator(entry, exit),
		opts:      strategy.Options{AllowLookahead: true},
	}
}

// WithLookahead toggles next_bar style filters
func (b *Backtester) WithLookahead(allow bool) *Backtester {
	cp := *b
	cp.opts.AllowLookahead = allow
	return &cp
}

// WithDebug keeps debug columns on the signal stream
func (b *Backtester) WithDebug(debug bool) *Backtester {
	cp := *b
	cp.opts.Debug = debug
	return &cp
}

// Run loads the symbol and backtests one definition
func (b *Backtester) Run(ctx context.Context, def strategy.Definition, symbol string, logger *zap.Logger) (*Result, error) {
	series, err := b.provider.Load(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}
	if series.Len() == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", symbol))
	}
	return b.RunSeries(ctx, def, series, logger)
}

// RunSeries backtests one definition over an already loaded series.
// Evaluation failures fall back to an all-hold stream with no orders.
func (b *Backtester) RunSeries(ctx context.Context, def strategy.Definition, series core.BarSeries, logger *zap.Logger) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := b.opts
	opts.Logger = logger
	stream := strategy.EvaluateOrHold(series, def, opts)
	orders := b.simulator.WithLogger(logger).Simulate(stream, series)

	return &Result{
		Symbol:   series.Symbol,
		Strategy: def.Name,
		Stream:   stream,
		Orders:   orders,
		Metrics:  Aggregate(series.Symbol, def.Name, orders.Orders),
	}, nil
}
