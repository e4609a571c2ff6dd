package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/newthinker/tradelab/internal/core"
)

func ordersWithReturns(returns ...float64) []core.Order {
	orders := make([]core.Order, len(returns))
	for i, r := range returns {
		orders[i] = core.Order{
			EntryTime: day0.AddDate(0, 0, i),
			NetReturn: r,
		}
	}
	return orders
}

func TestAggregate_Basic(t *testing.T) {
	rec := Aggregate("AAPL", "sma_5_20", ordersWithReturns(0.02, -0.01, 0.03, -0.01))

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, "sma_5_20", rec.Strategy)
	assert.Equal(t, 4, rec.TradeCount)
	assert.InDelta(t, 0.5, rec.WinRate, 1e-12)
	assert.InDelta(t, 0.0075, rec.AvgReturn, 1e-12)
	assert.InDelta(t, 0.005, rec.MedianReturn, 1e-12)
	assert.InDelta(t, 2.5, rec.ProfitFactor, 1e-9)
	assert.InDelta(t, 2.5, rec.PayoffRatio, 1e-9)
	assert.False(t, math.IsNaN(rec.SharpeSimplified))
	assert.InDelta(t, 0.01, rec.MaxDrawdown, 1e-9)
}

func TestAggregate_NoTrades(t *testing.T) {
	rec := Aggregate("AAPL", "sma_5_20", nil)

	if rec.TradeCount != 0 {
		t.Errorf("expected 0 trades, got %d", rec.TradeCount)
	}
	for name, v := range map[string]float64{
		"win_rate":      rec.WinRate,
		"avg_return":    rec.AvgReturn,
		"median_return": rec.MedianReturn,
		"profit_factor": rec.ProfitFactor,
		"payoff_ratio":  rec.PayoffRatio,
		"sharpe":        rec.SharpeSimplified,
		"max_drawdown":  rec.MaxDrawdown,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s: expected NaN, got %v", name, v)
		}
	}
}

func TestAggregate_NoLosses(t *testing.T) {
	rec := Aggregate("AAPL", "s", ordersWithReturns(0.02, 0.03))

	assert.Equal(t, 1.0, rec.WinRate)
	assert.True(t, math.IsNaN(rec.ProfitFactor))
	assert.True(t, math.IsNaN(rec.PayoffRatio))
	assert.Equal(t, 0.0, rec.MaxDrawdown)
}

func TestAggregate_NoWins(t *testing.T) {
	rec := Aggregate("AAPL", "s", ordersWithReturns(-0.02, -0.01))

	assert.Equal(t, 0.0, rec.WinRate)
	assert.Equal(t, 0.0, rec.ProfitFactor)
	assert.True(t, math.IsNaN(rec.PayoffRatio))
}

func TestAggregate_SingleTrade(t *testing.T) {
	rec := Aggregate("AAPL", "s", ordersWithReturns(0.02))

	assert.Equal(t, 1, rec.TradeCount)
	assert.True(t, math.IsNaN(rec.SharpeSimplified))
	assert.InDelta(t, 0.02, rec.MedianReturn, 1e-12)
}

func TestAggregate_OrdersByEntryTime(t *testing.T) {
	// chronological: -0.5, +1.0, -0.25
	orders := []core.Order{
		{EntryTime: day0.Add(2 * time.Hour), NetReturn: 1.0},
		{EntryTime: day0.Add(3 * time.Hour), NetReturn: -0.25},
		{EntryTime: day0.Add(1 * time.Hour), NetReturn: -0.5},
	}
	rec := Aggregate("AAPL", "s", orders)

	assert.InDelta(t, 0.5, rec.MaxDrawdown, 1e-9)
	assert.Equal(t, day0.Add(2*time.Hour), orders[0].EntryTime, "input must not be reordered")
}

func TestCalculateMaxDrawdown(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"rally then drop", []float64{0.10, 0.05, -0.20, 0.10}, 0.20},
		{"losing first trade", []float64{-0.10}, 0.10},
		{"monotonic gains", []float64{0.01, 0.02, 0.03}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateMaxDrawdown(tt.returns)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("calculateMaxDrawdown() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateSharpeRatio(t *testing.T) {
	assert.True(t, math.IsNaN(calculateSharpeRatio(nil)))
	assert.True(t, math.IsNaN(calculateSharpeRatio([]float64{0.01})))
	assert.True(t, math.IsNaN(calculateSharpeRatio([]float64{0.25, 0.25, 0.25})))

	// mean 0.02, sample stdev 0.01
	assert.InDelta(t, 2.0, calculateSharpeRatio([]float64{0.01, 0.02, 0.03}), 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.True(t, math.IsNaN(median(nil)))
}
