package backtest

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/newthinker/tradelab/internal/core"
)

// Aggregate reduces the orders of one pair to its metrics record. Ratios
// without a defined value are NaN.
func Aggregate(symbol, strategyName string, orders []core.Order) core.MetricsRecord {
	rec := core.MetricsRecord{
		Symbol:           symbol,
		Strategy:         strategyName,
		TradeCount:       len(orders),
		WinRate:          math.NaN(),
		AvgReturn:        math.NaN(),
		MedianReturn:     math.NaN(),
		ProfitFactor:     math.NaN(),
		PayoffRatio:      math.NaN(),
		SharpeSimplified: math.NaN(),
		MaxDrawdown:      math.NaN(),
	}
	if len(orders) == 0 {
		return rec
	}

	ordered := make([]core.Order, len(orders))
	copy(ordered, orders)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EntryTime.Before(ordered[j].EntryTime)
	})
	returns := lo.Map(ordered, func(o core.Order, _ int) float64 { return o.NetReturn })

	wins := lo.Filter(returns, func(r float64, _ int) bool { return r > 0 })
	losses := lo.Filter(returns, func(r float64, _ int) bool { return r < 0 })

	rec.WinRate = float64(len(wins)) / float64(len(returns))
	rec.AvgReturn = mean(returns)
	rec.MedianReturn = median(returns)

	if len(losses) > 0 {
		lossSum := math.Abs(lo.Sum(losses))
		rec.ProfitFactor = lo.Sum(wins) / lossSum
		if len(wins) > 0 {
			rec.PayoffRatio = mean(wins) / math.Abs(mean(losses))
		}
	}
	rec.SharpeSimplified = calculateSharpeRatio(returns)
	rec.MaxDrawdown = calculateMaxDrawdown(returns)
	return rec
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return lo.Sum(x) / float64(len(x))
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// calculateMaxDrawdown finds the largest peak-to-trough decline of the
// compounded equity curve starting at 1.0
func calculateMaxDrawdown(returns []float64) float64 {
	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// calculateSharpeRatio is mean over sample standard deviation, per trade
// and without annualization
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}

	m := mean(returns)
	var variance float64
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return math.NaN()
	}
	return m / stdDev
}
