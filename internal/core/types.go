package core

import (
	"sort"
	"time"
)

// Field names a column of a bar series
type Field string

const (
	FieldTimestamp Field = "timestamp"
	FieldOpen      Field = "open"
	FieldHigh      Field = "high"
	FieldLow       Field = "low"
	FieldClose     Field = "close"
	FieldVolume    Field = "volume"
)

// AllFields lists every OHLCV column in canonical order
var AllFields = []Field{FieldTimestamp, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// FieldSet is the set of columns a bar source actually provided
type FieldSet map[Field]struct{}

// NewFieldSet builds a set from the given fields
func NewFieldSet(fields ...Field) FieldSet {
	fs := make(FieldSet, len(fields))
	for _, f := range fields {
		fs[f] = struct{}{}
	}
	return fs
}

// Has reports whether the field is present
func (fs FieldSet) Has(f Field) bool {
	_, ok := fs[f]
	return ok
}

// Missing returns the required fields absent from the set, in the order given
func (fs FieldSet) Missing(required []Field) []Field {
	var out []Field
	for _, f := range required {
		if !fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Bar represents one OHLCV observation
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is the ordered bar history of one symbol
type BarSeries struct {
	Symbol string
	Fields FieldSet
	Bars   []Bar
}

// Len returns the number of bars
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// Sorted returns a copy of the series ordered ascending by time.
// The sort is stable so duplicate timestamps keep their input order.
func (s BarSeries) Sorted() BarSeries {
	bars := make([]Bar, len(s.Bars))
	copy(bars, s.Bars)
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return BarSeries{Symbol: s.Symbol, Fields: s.Fields, Bars: bars}
}

// Closes returns the close column
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Opens returns the open column
func (s BarSeries) Opens() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high column
func (s BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column
func (s BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Action represents a tri-state signal
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// IsActionable reports whether the action opens a position
func (a Action) IsActionable() bool {
	return a == ActionBuy || a == ActionSell
}

// Signal is the state of one strategy for one bar
type Signal struct {
	Symbol   string
	Time     time.Time
	Strategy string
	Action   Action
}

// Side is the direction of a simulated order
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Direction returns +1 for longs and -1 for shorts
func (s Side) Direction() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// ExitReason explains why a simulated order closed
type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTimeout    ExitReason = "timeout"
)

// Order is a closed simulated position created from one signal
type Order struct {
	ID            string
	Symbol        string
	Strategy      string
	Side          Side
	SignalTime    time.Time
	EntryTime     time.Time
	EntryPrice    float64
	ExitTime      time.Time
	ExitPrice     float64
	ExitReason    ExitReason
	Commission    float64
	GrossReturn   float64 // Direction-adjusted price return
	NetReturn     float64 // GrossReturn after commission
	PnL           float64 // Per-unit price difference after commission
	HoldingPeriod int     // Bars between entry and exit
	HoldingDays   int     // Calendar days between entry and exit
}

// IsWin returns true if the order was profitable after costs
func (o Order) IsWin() bool {
	return o.NetReturn > 0
}

// MetricsRecord summarizes the orders of one (symbol, strategy) pair.
// Undefined ratios are NaN.
type MetricsRecord struct {
	Symbol           string
	Strategy         string
	TradeCount       int
	WinRate          float64
	AvgReturn        float64
	MedianReturn     float64
	ProfitFactor     float64
	PayoffRatio      float64
	SharpeSimplified float64
	MaxDrawdown      float64
}

// RunStatus is the outcome reported for a module run
type RunStatus string

const (
	StatusOK    RunStatus = "OK"
	StatusError RunStatus = "ERROR"
)

// StatusRecord is the per-module entry of the system status mapping
type StatusRecord struct {
	Date        string    `json:"date"`
	LastRunTime string    `json:"last_run_time"`
	Status      RunStatus `json:"status"`
	Message     string    `json:"message"`
}
