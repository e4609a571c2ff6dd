package strategy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/indicator"
)

// Options controls one evaluation
type Options struct {
	// AllowLookahead permits filters that read future bars. Only
	// retrospective backtests may set it.
	AllowLookahead bool
	// Debug keeps indicator values and gate results on the stream
	Debug  bool
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// SignalStream is the per-bar output of one strategy over one series
type SignalStream struct {
	Symbol   string
	Strategy string
	Signals  []core.Signal
	Debug    []Column
	// Reason is set when the stream is the all-hold fallback
	Reason string
}

// Fallback reports whether the stream is the all-hold fallback
func (s *SignalStream) Fallback() bool {
	return s.Reason != ""
}

// Count returns the number of signals with the given action
func (s *SignalStream) Count(a core.Action) int {
	n := 0
	for _, sig := range s.Signals {
		if sig.Action == a {
			n++
		}
	}
	return n
}

// Actionable returns the buy and sell signals in time order
func (s *SignalStream) Actionable() []core.Signal {
	var out []core.Signal
	for _, sig := range s.Signals {
		if sig.Action.IsActionable() {
			out = append(out, sig)
		}
	}
	return out
}

// Evaluate runs the definition over the series. Precondition failures,
// forbidden lookahead and computation failures are returned as errors;
// the caller builds the hold fallback with HoldStream.
func Evaluate(series core.BarSeries, def Definition, opts Options) (stream *SignalStream, err error) {
	defer func() {
		if r := recover(); r != nil {
			stream = nil
			err = core.WrapError(core.ErrComputation, fmt.Errorf("%s: %v", def.Name, r))
		}
	}()

	if missing := series.Fields.Missing(def.RequiredFields()); len(missing) > 0 {
		return nil, core.WrapError(core.ErrSchema, fmt.Errorf("missing fields %v", missing))
	}
	if series.Len() < def.Lookback {
		return nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("have %d bars, need %d", series.Len(), def.Lookback))
	}
	rule, ok := rules[def.Rule]
	if !ok {
		return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("rule %q", def.Rule))
	}

	filters := make([]Filter, 0, len(def.Filters))
	for _, spec := range def.Filters {
		f, err := buildFilter(spec)
		if err != nil {
			return nil, err
		}
		if f.Lookahead() && !opts.AllowLookahead {
			return nil, core.WrapError(core.ErrLookaheadForbidden, fmt.Errorf("filter %s", f.Kind()))
		}
		filters = append(filters, f)
	}

	sorted := series.Sorted()
	frame := newFrame(sorted)
	n := frame.Len()

	out := rule(frame, def.Params)
	checkLegs(out.Trigger, n, "rule "+def.Rule)
	checkLegs(out.State, n, "rule "+def.Rule)

	buy, sell := out.Trigger.Buy, out.Trigger.Sell
	debug := out.Debug
	for _, f := range filters {
		gate := f.Gate(frame, out)
		checkLegs(gate, n, "filter "+f.Kind())
		buy = indicator.And(buy, gate.Buy)
		sell = indicator.And(sell, gate.Sell)
		debug = append(debug,
			Column{"gate_" + f.Kind() + "_buy", gate.Buy.Floats()},
			Column{"gate_" + f.Kind() + "_sell", gate.Sell.Floats()},
		)
	}
	if def.ExitOnBreak {
		sell = indicator.And(buy.Shift(1), buy.Not())
	}

	stream = &SignalStream{
		Symbol:   series.Symbol,
		Strategy: def.Name,
		Signals:  make([]core.Signal, n),
	}
	for i, bar := range sorted.Bars {
		action := core.ActionHold
		switch {
		case buy[i]:
			action = core.ActionBuy
		case sell[i]:
			action = core.ActionSell
		}
		stream.Signals[i] = core.Signal{
			Symbol:   series.Symbol,
			Time:     bar.Time,
			Strategy: def.Name,
			Action:   action,
		}
	}
	if opts.Debug {
		stream.Debug = debug
	}

	opts.logger().Debug("evaluation complete",
		zap.Int("buy", stream.Count(core.ActionBuy)),
		zap.Int("sell", stream.Count(core.ActionSell)),
		zap.Int("total", n),
	)
	return stream, nil
}

// HoldStream is the all-hold fallback, one signal per input bar in time order
func HoldStream(series core.BarSeries, name string, cause error) *SignalStream {
	sorted := series.Sorted()
	stream := &SignalStream{
		Symbol:   series.Symbol,
		Strategy: name,
		Signals:  make([]core.Signal, len(sorted.Bars)),
		Reason:   core.Reason(cause),
	}
	if stream.Reason == "" {
		stream.Reason = "UNKNOWN"
	}
	for i, bar := range sorted.Bars {
		stream.Signals[i] = core.Signal{
			Symbol:   series.Symbol,
			Time:     bar.Time,
			Strategy: name,
			Action:   core.ActionHold,
		}
	}
	return stream
}

// EvaluateOrHold evaluates and falls back to the hold stream on error
func EvaluateOrHold(series core.BarSeries, def Definition, opts Options) *SignalStream {
	stream, err := Evaluate(series, def, opts)
	if err != nil {
		opts.logger().Info("strategy fell back to hold",
			zap.String("reason", core.Reason(err)),
			zap.Error(err),
		)
		return HoldStream(series, def.Name, err)
	}
	return stream
}

func buildFilter(spec FilterSpec) (Filter, error) {
	f, err := NewFilter(spec)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	return f, nil
}

func checkLegs(l Legs, n int, source string) {
	if len(l.Buy) != n || len(l.Sell) != n {
		panic(fmt.Sprintf("%s: produced %d/%d values for %d bars", source, len(l.Buy), len(l.Sell), n))
	}
}
