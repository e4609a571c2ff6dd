package backtest

import (
	"fmt"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/strategy"
)

// EntryPrice selects the fill price of the entry bar
type EntryPrice string

const (
	EntryNextOpen  EntryPrice = "next_open"
	EntryNextClose EntryPrice = "next_close"
)

// TieBreak decides which barrier wins when one bar crosses both
type TieBreak string

const (
	TakeProfitFirst TieBreak = "take_profit_first"
	StopLossFirst   TieBreak = "stop_loss_first"
)

// EntryRule controls how a signal becomes a position
type EntryRule struct {
	Price    EntryPrice
	LongOnly bool // sell signals are ignored
}

// ExitRule holds the barriers and costs of a simulated position
type ExitRule struct {
	TakeProfit     float64 // fraction of the entry price
	StopLoss       float64 // fraction of the entry price
	MaxHoldingBars int
	TieBreak       TieBreak
	// Commission is a fixed per-order amount in price units, subtracted
	// when ChargeCommission is set
	Commission       float64
	ChargeCommission bool
}

// DefaultEntryRule enters at the open of the bar after the signal
func DefaultEntryRule() EntryRule {
	return EntryRule{Price: EntryNextOpen}
}

// DefaultExitRule is 3% take-profit, 1% stop-loss, 5 bars, 0.6 commission
func DefaultExitRule() ExitRule {
	return ExitRule{
		TakeProfit:       0.03,
		StopLoss:         0.01,
		MaxHoldingBars:   5,
		TieBreak:         TakeProfitFirst,
		Commission:       0.6,
		ChargeCommission: true,
	}
}

// Validate checks the entry rule
func (r EntryRule) Validate() error {
	switch r.Price {
	case EntryNextOpen, EntryNextClose:
		return nil
	}
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown entry price %q", r.Price))
}

// Validate checks the exit rule
func (r ExitRule) Validate() error {
	if r.TakeProfit <= 0 || r.StopLoss <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("take profit and stop loss must be positive"))
	}
	if r.StopLoss >= 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("stop loss must be below 1"))
	}
	if r.MaxHoldingBars < 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("max holding bars must be positive"))
	}
	if r.Commission < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("commission must not be negative"))
	}
	switch r.TieBreak {
	case TakeProfitFirst, StopLossFirst:
		return nil
	}
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown tie break %q", r.TieBreak))
}

// Skip reasons besides core.ErrMissingReferenceData
const (
	SkipNoEntryBar   = "NO_ENTRY_BAR"
	SkipNoScanBar    = "NO_SCAN_BAR"
	SkipInvalidEntry = "INVALID_ENTRY_PRICE"
)

// Skip records an actionable signal that produced no order
type Skip struct {
	Signal core.Signal
	Reason string
}

// OrderSet is the simulation output of one (symbol, strategy) pair
type OrderSet struct {
	Symbol   string
	Strategy string
	Orders   []core.Order
	Skipped  []Skip
}

// Result holds the complete backtest output of one pair
type Result struct {
	Symbol   string
	Strategy string
	Stream   *strategy.SignalStream
	Orders   OrderSet
	Metrics  core.MetricsRecord
}
