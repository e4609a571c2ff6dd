package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/strategy"
)

// Simulator turns actionable signals into closed orders by scanning
// forward for a take-profit, stop-loss or timeout exit.
type Simulator struct {
	entry  EntryRule
	exit   ExitRule
	logger *zap.Logger
}

// NewSimulator creates a simulator with the given rules
func NewSimulator(entry EntryRule, exit ExitRule, logger ...*zap.Logger) *Simulator {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Simulator{entry: entry, exit: exit, logger: l}
}

// Simulate runs the barrier engine with a silent logger
func Simulate(stream *strategy.SignalStream, series core.BarSeries, entry EntryRule, exit ExitRule) OrderSet {
	return NewSimulator(entry, exit).Simulate(stream, series)
}

// WithLogger returns a copy of the simulator logging to l
func (s *Simulator) WithLogger(l *zap.Logger) *Simulator {
	cp := *s
	cp.logger = l
	return &cp
}

// Simulate opens one position per actionable signal. Signals that cannot
// be filled are skipped and recorded; they never abort the pass.
func (s *Simulator) Simulate(stream *strategy.SignalStream, series core.BarSeries) OrderSet {
	set := OrderSet{Symbol: stream.Symbol, Strategy: stream.Strategy}

	sorted := series.Sorted()
	bars := sorted.Bars
	index := make(map[int64]int, len(bars))
	for i, b := range bars {
		key := b.Time.UnixNano()
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	signals := lo.Filter(stream.Signals, func(sig core.Signal, _ int) bool {
		if !sig.Action.IsActionable() {
			return false
		}
		return !(s.entry.LongOnly && sig.Action == core.ActionSell)
	})

	for _, sig := range signals {
		i, ok := index[sig.Time.UnixNano()]
		if !ok {
			s.skip(&set, sig, core.ErrMissingReferenceData.Code)
			continue
		}
		order, reason := s.fill(sig, bars, i)
		if reason != "" {
			s.skip(&set, sig, reason)
			continue
		}
		set.Orders = append(set.Orders, order)
	}
	return set
}

func (s *Simulator) skip(set *OrderSet, sig core.Signal, reason string) {
	s.logger.Warn("signal skipped",
		zap.Time("signal_time", sig.Time),
		zap.String("action", string(sig.Action)),
		zap.String("reason", reason),
	)
	set.Skipped = append(set.Skipped, Skip{Signal: sig, Reason: reason})
}

func (s *Simulator) fill(sig core.Signal, bars []core.Bar, signalIdx int) (core.Order, string) {
	entryIdx := signalIdx + 1
	if entryIdx >= len(bars) {
		return core.Order{}, SkipNoEntryBar
	}
	if entryIdx+1 >= len(bars) {
		return core.Order{}, SkipNoScanBar
	}

	entryBar := bars[entryIdx]
	entry := entryBar.Open
	if s.entry.Price == EntryNextClose {
		entry = entryBar.Close
	}
	if !(entry > 0) || math.IsInf(entry, 1) {
		return core.Order{}, SkipInvalidEntry
	}

	side := core.SideBuy
	if sig.Action == core.ActionSell {
		side = core.SideSell
	}

	exitIdx, exitPrice, reason := s.scan(side, entry, bars, entryIdx)
	exitBar := bars[exitIdx]

	dir := side.Direction()
	var commission float64
	if s.exit.ChargeCommission {
		commission = s.exit.Commission
	}
	pnl := dir*(exitPrice-entry) - commission

	return core.Order{
		ID:            OrderID(sig),
		Symbol:        sig.Symbol,
		Strategy:      sig.Strategy,
		Side:          side,
		SignalTime:    sig.Time,
		EntryTime:     entryBar.Time,
		EntryPrice:    entry,
		ExitTime:      exitBar.Time,
		ExitPrice:     exitPrice,
		ExitReason:    reason,
		Commission:    commission,
		GrossReturn:   dir * (exitPrice - entry) / entry,
		NetReturn:     pnl / entry,
		PnL:           pnl,
		HoldingPeriod: exitIdx - entryIdx,
		HoldingDays:   int(exitBar.Time.Sub(entryBar.Time) / (24 * time.Hour)),
	}, ""
}

// scan walks the bars after entry. Barrier exits fill at the barrier
// price; a timeout exits at the close of the last scanned bar.
func (s *Simulator) scan(side core.Side, entry float64, bars []core.Bar, entryIdx int) (int, float64, core.ExitReason) {
	var tpPrice, slPrice float64
	if side == core.SideBuy {
		tpPrice = entry * (1 + s.exit.TakeProfit)
		slPrice = entry * (1 - s.exit.StopLoss)
	} else {
		tpPrice = entry * (1 - s.exit.TakeProfit)
		slPrice = entry * (1 + s.exit.StopLoss)
	}

	last := entryIdx
	for k := 1; k <= s.exit.MaxHoldingBars && entryIdx+k < len(bars); k++ {
		last = entryIdx + k
		b := bars[last]

		var tpHit, slHit bool
		if side == core.SideBuy {
			tpHit = b.High >= tpPrice
			slHit = b.Low <= slPrice
		} else {
			tpHit = b.Low <= tpPrice
			slHit = b.High >= slPrice
		}

		if s.exit.TieBreak == StopLossFirst {
			if slHit {
				return last, slPrice, core.ExitStopLoss
			}
			if tpHit {
				return last, tpPrice, core.ExitTakeProfit
			}
			continue
		}
		if tpHit {
			return last, tpPrice, core.ExitTakeProfit
		}
		if slHit {
			return last, slPrice, core.ExitStopLoss
		}
	}
	return last, bars[last].Close, core.ExitTimeout
}

// OrderID is SYMBOL_date_strategy_side. The date carries a clock part
// only for intraday timestamps.
func OrderID(sig core.Signal) string {
	t := sig.Time.UTC()
	stamp := t.Format("20060102")
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
		stamp = t.Format("20060102T150405")
	}
	side := core.SideBuy
	if sig.Action == core.ActionSell {
		side = core.SideSell
	}
	return fmt.Sprintf("%s_%s_%s_%s", sig.Symbol, stamp, sig.Strategy, side)
}
