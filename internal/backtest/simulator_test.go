package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/strategy"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// ohlc rows are open, high, low, close
func barsFrom(rows ...[4]float64) core.BarSeries {
	bars := make([]core.Bar, len(rows))
	for i, r := range rows {
		bars[i] = core.Bar{
			Symbol: "AAPL",
			Time:   day0.AddDate(0, 0, i),
			Open:   r[0],
			High:   r[1],
			Low:    r[2],
			Close:  r[3],
			Volume: 1000,
		}
	}
	return core.BarSeries{Symbol: "AAPL", Fields: core.NewFieldSet(core.AllFields...), Bars: bars}
}

func streamWith(series core.BarSeries, actions map[int]core.Action) *strategy.SignalStream {
	stream := strategy.HoldStream(series, "test_strategy", nil)
	stream.Reason = ""
	for i, a := range actions {
		stream.Signals[i].Action = a
	}
	return stream
}

func TestSimulate_TakeProfit(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},   // signal
		[4]float64{100, 100.8, 99.6, 100}, // entry
		[4]float64{100.2, 100.5, 99.5, 100.1},
		[4]float64{100.1, 103.5, 99.8, 103.2},
		[4]float64{103, 104, 102, 103.5},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)
	assert.Empty(t, set.Skipped)

	o := set.Orders[0]
	assert.Equal(t, core.ExitTakeProfit, o.ExitReason)
	assert.Equal(t, 100.0, o.EntryPrice)
	assert.InDelta(t, 103.0, o.ExitPrice, 1e-9)
	assert.InDelta(t, 0.03, o.GrossReturn, 1e-9)
	assert.InDelta(t, 0.024, o.NetReturn, 1e-9)
	assert.InDelta(t, 2.4, o.PnL, 1e-9)
	assert.Equal(t, 0.6, o.Commission)
	assert.Equal(t, 2, o.HoldingPeriod)
	assert.Equal(t, 2, o.HoldingDays)
	assert.Equal(t, series.Bars[1].Time, o.EntryTime)
	assert.Equal(t, series.Bars[3].Time, o.ExitTime)
	assert.True(t, o.ExitTime.After(o.EntryTime))
	assert.Equal(t, "AAPL_20240301_test_strategy_buy", o.ID)
}

func TestSimulate_Timeout(t *testing.T) {
	rows := [][4]float64{{100, 100, 100, 100}, {100, 101, 99.5, 100}}
	for i := 0; i < 7; i++ {
		rows = append(rows, [4]float64{100, 101, 99.5, 100 + float64(i)*0.1})
	}
	series := barsFrom(rows...)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)

	o := set.Orders[0]
	assert.Equal(t, core.ExitTimeout, o.ExitReason)
	assert.Equal(t, 5, o.HoldingPeriod)
	assert.Equal(t, series.Bars[6].Close, o.ExitPrice)
	assert.Equal(t, series.Bars[6].Time, o.ExitTime)
}

func TestSimulate_TimeoutAtSeriesEnd(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 101, 99.5, 100.4},
		[4]float64{100, 101, 99.5, 100.7},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)
	assert.Equal(t, core.ExitTimeout, set.Orders[0].ExitReason)
	assert.Equal(t, 2, set.Orders[0].HoldingPeriod)
	assert.Equal(t, 100.7, set.Orders[0].ExitPrice)
}

func TestSimulate_StopLoss(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100.5, 98.9, 99.2},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)

	o := set.Orders[0]
	assert.Equal(t, core.ExitStopLoss, o.ExitReason)
	assert.InDelta(t, 99.0, o.ExitPrice, 1e-9)
	assert.InDelta(t, -0.016, o.NetReturn, 1e-9)
	assert.False(t, o.IsWin())
}

func TestSimulate_TieBreak(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 104, 98, 100},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	tpFirst := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	assert.Equal(t, core.ExitTakeProfit, tpFirst.Orders[0].ExitReason)

	exit := DefaultExitRule()
	exit.TieBreak = StopLossFirst
	slFirst := Simulate(stream, series, DefaultEntryRule(), exit)
	assert.Equal(t, core.ExitStopLoss, slFirst.Orders[0].ExitReason)
}

func TestSimulate_EntryBarNeverExits(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 110, 90, 100},
		[4]float64{100, 100.5, 99.5, 100.2},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)
	assert.Equal(t, core.ExitTimeout, set.Orders[0].ExitReason)
}

func TestSimulate_ShortTakeProfit(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{99, 100.5, 96.5, 97},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionSell})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	require.Len(t, set.Orders, 1)

	o := set.Orders[0]
	assert.Equal(t, core.SideSell, o.Side)
	assert.Equal(t, core.ExitTakeProfit, o.ExitReason)
	assert.InDelta(t, 97.0, o.ExitPrice, 1e-9)
	assert.InDelta(t, 0.03, o.GrossReturn, 1e-9)
	assert.InDelta(t, 2.4, o.PnL, 1e-9)
	assert.Equal(t, "AAPL_20240301_test_strategy_sell", o.ID)
}

func TestSimulate_CommissionToggle(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 103.5, 99.5, 103},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	exit := DefaultExitRule()
	exit.ChargeCommission = false
	set := Simulate(stream, series, DefaultEntryRule(), exit)

	o := set.Orders[0]
	assert.Equal(t, 0.0, o.Commission)
	assert.InDelta(t, o.GrossReturn, o.NetReturn, 1e-12)
}

func TestSimulate_NextCloseEntry(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{98, 101, 97, 100},
		[4]float64{100, 100.5, 99.5, 100.2},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy})

	set := Simulate(stream, series, EntryRule{Price: EntryNextClose}, DefaultExitRule())
	assert.Equal(t, 100.0, set.Orders[0].EntryPrice)

	set = Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	assert.Equal(t, 98.0, set.Orders[0].EntryPrice)
}

func TestSimulate_SkipsAndRecords(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
	)
	stream := streamWith(series, map[int]core.Action{2: core.ActionBuy, 3: core.ActionSell})
	stream.Signals = append(stream.Signals, core.Signal{
		Symbol:   "AAPL",
		Time:     day0.AddDate(0, 1, 0),
		Strategy: "test_strategy",
		Action:   core.ActionBuy,
	})

	set := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	assert.Empty(t, set.Orders)
	require.Len(t, set.Skipped, 3)

	reasons := []string{set.Skipped[0].Reason, set.Skipped[1].Reason, set.Skipped[2].Reason}
	assert.Equal(t, []string{SkipNoScanBar, SkipNoEntryBar, core.ErrMissingReferenceData.Code}, reasons)
}

func TestSimulate_LongOnlyIgnoresSells(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 100, 100},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionSell, 1: core.ActionBuy})

	set := Simulate(stream, series, EntryRule{Price: EntryNextOpen, LongOnly: true}, DefaultExitRule())
	require.Len(t, set.Orders, 1)
	assert.Equal(t, core.SideBuy, set.Orders[0].Side)
	assert.Empty(t, set.Skipped)
}

func TestSimulate_Deterministic(t *testing.T) {
	series := barsFrom(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100.8, 99.6, 100},
		[4]float64{100.1, 103.5, 99.8, 103.2},
		[4]float64{103, 104, 102, 103.5},
		[4]float64{103, 104, 102, 103.5},
	)
	stream := streamWith(series, map[int]core.Action{0: core.ActionBuy, 1: core.ActionSell})

	first := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	second := Simulate(stream, series, DefaultEntryRule(), DefaultExitRule())
	assert.Equal(t, first, second)
}

func TestOrderID_Intraday(t *testing.T) {
	sig := core.Signal{
		Symbol:   "MSFT",
		Time:     time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Strategy: "gap_open",
		Action:   core.ActionSell,
	}
	assert.Equal(t, "MSFT_20240102T093000_gap_open_sell", OrderID(sig))
}

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, DefaultEntryRule().Validate())
	assert.NoError(t, DefaultExitRule().Validate())

	assert.True(t, errors.Is(EntryRule{Price: "vwap"}.Validate(), core.ErrConfigInvalid))

	bad := []func(r *ExitRule){
		func(r *ExitRule) { r.TakeProfit = 0 },
		func(r *ExitRule) { r.StopLoss = 1.5 },
		func(r *ExitRule) { r.MaxHoldingBars = 0 },
		func(r *ExitRule) { r.Commission = -1 },
		func(r *ExitRule) { r.TieBreak = "coin_flip" },
	}
	for i, mutate := range bad {
		r := DefaultExitRule()
		mutate(&r)
		assert.True(t, errors.Is(r.Validate(), core.ErrConfigInvalid), "case %d", i)
	}
}
