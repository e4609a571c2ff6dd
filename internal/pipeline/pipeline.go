// Package pipeline runs the symbol by strategy outer product through a
// bounded worker pool. Each pair is evaluated, simulated and written on
// its own; a failing pair is recorded and never stops its siblings.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/tradelab/internal/artifact"
	"github.com/newthinker/tradelab/internal/backtest"
	"github.com/newthinker/tradelab/internal/barsource"
	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/metrics"
	"github.com/newthinker/tradelab/internal/status"
	"github.com/newthinker/tradelab/internal/strategy"
)

// Mode selects what a batch produces
type Mode string

const (
	// ModeBacktest evaluates, simulates and aggregates
	ModeBacktest Mode = "backtest"
	// ModeSignals only evaluates, with lookahead filters rejected
	ModeSignals Mode = "signals"
)

// Failure stages
const (
	StageLoad     = "load"
	StageSimulate = "simulate"
	StageWrite    = "write"
	StageSummary  = "summary"
	StageCanceled = "canceled"
	StagePanic    = "panic"
)

// Failure records one pair that produced no artifacts
type Failure struct {
	Symbol   string
	Strategy string
	Stage    string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s/%s %s: %v", f.Symbol, f.Strategy, f.Stage, f.Err)
}

// BatchReport is the outcome of one batch
type BatchReport struct {
	RunID    string
	RunDate  string
	Mode     Mode
	Pairs    int
	Metrics  []core.MetricsRecord // backtest mode, sorted by (symbol, strategy)
	Streams  []*strategy.SignalStream
	Failures []Failure
	Duration time.Duration
}

// OK reports whether every pair succeeded
func (r *BatchReport) OK() bool {
	return len(r.Failures) == 0
}

// Options configures a Runner
type Options struct {
	Workers        int
	AllowLookahead bool
	Debug          bool
	StatusModule   string
}

// Runner executes batches
type Runner struct {
	source   barsource.Source
	writer   *artifact.Writer
	registry *strategy.Registry
	bt       *backtest.Backtester
	reporter status.Reporter
	metrics  *metrics.Registry
	opts     Options
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Runner. A nil reporter disables status reporting and a
// nil metrics registry disables instrumentation.
func New(source barsource.Source, writer *artifact.Writer, registry *strategy.Registry,
	entry backtest.EntryRule, exit backtest.ExitRule, opts Options, logger ...*zap.Logger) *Runner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		source:   source,
		writer:   writer,
		registry: registry,
		bt:       backtest.New(source, entry, exit).WithLookahead(opts.AllowLookahead).WithDebug(opts.Debug),
		reporter: status.NopReporter{},
		opts:     opts,
		logger:   l,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithReporter sets the status reporter
func (r *Runner) WithReporter(rep status.Reporter) *Runner {
	if rep != nil {
		r.reporter = rep
	}
	return r
}

// WithMetrics sets the metrics registry
func (r *Runner) WithMetrics(m *metrics.Registry) *Runner {
	r.metrics = m
	return r
}

// WithClock replaces the wall clock used for run dates and status records
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

type pair struct {
	symbol string
	def    strategy.Definition
}

type pairResult struct {
	metrics *core.MetricsRecord
	stream  *strategy.SignalStream
}

// Run processes every (symbol, strategy) pair. An empty strategies list
// selects the whole registry. The returned error covers batch level
// problems only; pair failures are listed in the report.
func (r *Runner) Run(ctx context.Context, mode Mode, symbols, strategies []string) (*BatchReport, error) {
	start := r.now()
	report := &BatchReport{
		RunID:   r.newID(),
		RunDate: start.Format("2006-01-02"),
		Mode:    mode,
	}
	log := r.logger.With(zap.String("run_id", report.RunID), zap.String("mode", string(mode)))

	if len(strategies) == 0 {
		strategies = r.registry.Names()
	}
	defs, err := r.registry.Resolve(strategies)
	if err != nil {
		return nil, err
	}

	var pairs []pair
	for _, sym := range uniqueSorted(symbols) {
		for _, def := range defs {
			pairs = append(pairs, pair{symbol: sym, def: def})
		}
	}
	report.Pairs = len(pairs)

	log.Info("batch started",
		zap.Int("symbols", len(symbols)),
		zap.Int("strategies", len(defs)),
		zap.Int("pairs", len(pairs)),
		zap.Int("workers", r.opts.Workers),
	)

	cache := newSeriesCache(r.source)
	results := make([]pairResult, len(pairs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			pairLog := log.With(zap.String("symbol", p.symbol), zap.String("strategy", p.def.Name))
			res, fail := r.safeRunPair(gctx, mode, report.RunDate, cache, p, pairLog)
			if fail != nil {
				pairLog.Warn("pair failed", zap.String("stage", fail.Stage), zap.Error(fail.Err))
				r.recordFailure(fail.Stage)
				mu.Lock()
				report.Failures = append(report.Failures, *fail)
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// workers never return errors
	_ = g.Wait()

	for _, res := range results {
		if res.metrics != nil {
			report.Metrics = append(report.Metrics, *res.metrics)
		}
		if res.stream != nil {
			report.Streams = append(report.Streams, res.stream)
		}
	}
	sortMetrics(report.Metrics)
	sortFailures(report.Failures)

	if mode == ModeBacktest && ctx.Err() == nil {
		if err := r.writer.WriteSummary(ctx, report.RunDate, report.Metrics); err != nil {
			log.Warn("summary write failed", zap.Error(err))
			r.recordFailure(StageSummary)
			report.Failures = append(report.Failures, Failure{Stage: StageSummary, Err: err})
		}
	}

	report.Duration = r.now().Sub(start)
	if r.metrics != nil {
		r.metrics.RecordBatch(report.Duration.Seconds(), report.Pairs)
	}

	r.reportStatus(ctx, report, log)

	log.Info("batch finished",
		zap.Int("pairs", report.Pairs),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("duration", report.Duration),
	)
	return report, ctx.Err()
}

// safeRunPair turns a panic inside one pair into a failure of that pair
func (r *Runner) safeRunPair(ctx context.Context, mode Mode, runDate string, cache *seriesCache, p pair, log *zap.Logger) (res pairResult, fail *Failure) {
	defer func() {
		if v := recover(); v != nil {
			res = pairResult{}
			fail = &Failure{
				Symbol:   p.symbol,
				Strategy: p.def.Name,
				Stage:    StagePanic,
				Err:      fmt.Errorf("panic: %v", v),
			}
		}
	}()
	return r.runPair(ctx, mode, runDate, cache, p, log)
}

func (r *Runner) runPair(ctx context.Context, mode Mode, runDate string, cache *seriesCache, p pair, log *zap.Logger) (pairResult, *Failure) {
	fail := func(stage string, err error) *Failure {
		return &Failure{Symbol: p.symbol, Strategy: p.def.Name, Stage: stage, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return pairResult{}, fail(StageCanceled, err)
	}

	series, err := cache.load(ctx, p.symbol)
	if err != nil {
		return pairResult{}, fail(StageLoad, err)
	}
	if series.Len() == 0 {
		return pairResult{}, fail(StageLoad, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", p.symbol)))
	}

	if mode == ModeSignals {
		stream := strategy.EvaluateOrHold(series, p.def, strategy.Options{Debug: r.opts.Debug, Logger: log})
		r.recordStream(stream)
		if err := r.writer.WriteSignals(ctx, stream); err != nil {
			return pairResult{}, fail(StageWrite, err)
		}
		return pairResult{stream: stream}, nil
	}

	res, err := r.bt.RunSeries(ctx, p.def, series, log)
	if err != nil {
		return pairResult{}, fail(StageSimulate, err)
	}
	r.recordStream(res.Stream)
	r.recordOrders(res.Orders)

	if err := r.writer.WriteSignals(ctx, res.Stream); err != nil {
		return pairResult{}, fail(StageWrite, err)
	}
	if err := r.writer.WriteOrders(ctx, res.Symbol, res.Strategy, res.Orders.Orders); err != nil {
		return pairResult{}, fail(StageWrite, err)
	}
	if err := r.writer.WritePairMetrics(ctx, runDate, res.Metrics); err != nil {
		return pairResult{}, fail(StageWrite, err)
	}

	log.Debug("pair done",
		zap.Int("orders", len(res.Orders.Orders)),
		zap.Int("skipped", len(res.Orders.Skipped)),
	)
	m := res.Metrics
	return pairResult{metrics: &m, stream: res.Stream}, nil
}

func (r *Runner) reportStatus(ctx context.Context, report *BatchReport, log *zap.Logger) {
	st := core.StatusOK
	msg := fmt.Sprintf("%s run %s: %d pairs", report.Mode, report.RunID, report.Pairs)
	if !report.OK() {
		st = core.StatusError
		msg = fmt.Sprintf("%s, %d failed (first: %s)", msg, len(report.Failures), report.Failures[0].Error())
	}
	if ctx.Err() != nil {
		st = core.StatusError
		msg = fmt.Sprintf("%s, interrupted: %v", msg, ctx.Err())
	}

	rec := status.NewRecord(r.now(), st, msg)
	// a canceled batch still reports its status
	if err := r.reporter.Report(context.WithoutCancel(ctx), r.opts.StatusModule, rec); err != nil {
		log.Warn("status report failed", zap.Error(err))
	}
}

func (r *Runner) recordStream(stream *strategy.SignalStream) {
	if r.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	if stream.Fallback() {
		outcome = metrics.OutcomeFallback
	}
	r.metrics.RecordEvaluation(stream.Strategy, outcome)
	r.metrics.RecordSignals(stream.Strategy, string(core.ActionBuy), stream.Count(core.ActionBuy))
	r.metrics.RecordSignals(stream.Strategy, string(core.ActionSell), stream.Count(core.ActionSell))
}

func (r *Runner) recordOrders(set backtest.OrderSet) {
	if r.metrics == nil {
		return
	}
	for _, o := range set.Orders {
		r.metrics.RecordOrder(o.Strategy, string(o.ExitReason))
	}
	for _, s := range set.Skipped {
		r.metrics.RecordSkip(s.Reason)
	}
}

func (r *Runner) recordFailure(stage string) {
	if r.metrics != nil {
		r.metrics.RecordFailure(stage)
	}
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortMetrics(m []core.MetricsRecord) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].Symbol != m[j].Symbol {
			return m[i].Symbol < m[j].Symbol
		}
		return m[i].Strategy < m[j].Strategy
	})
}

func sortFailures(f []Failure) {
	sort.SliceStable(f, func(i, j int) bool {
		if f[i].Symbol != f[j].Symbol {
			return f[i].Symbol < f[j].Symbol
		}
		return f[i].Strategy < f[j].Strategy
	})
}
