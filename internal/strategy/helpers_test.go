package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/tradelab/internal/core"
)

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func flatBars(n int, price, volume float64) []core.Bar {
	bars := make([]core.Bar, n)
	for i := range bars {
		bars[i] = core.Bar{
			Symbol: "TEST",
			Time:   testStart.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}
	return bars
}

func seriesOf(bars []core.Bar) core.BarSeries {
	return core.BarSeries{Symbol: "TEST", Fields: core.NewFieldSet(core.AllFields...), Bars: bars}
}

// spikeSeries is 25 flat bars at 100 followed by one wide bullish bar on triple volume
func spikeSeries() core.BarSeries {
	bars := flatBars(25, 100, 1000)
	bars = append(bars, core.Bar{
		Symbol: "TEST",
		Time:   testStart.AddDate(0, 0, 25),
		Open:   100,
		High:   116,
		Low:    100,
		Close:  115,
		Volume: 3000,
	})
	return seriesOf(bars)
}

// waveSeries oscillates with a slow drift so every rule sees both regimes
func waveSeries(n int) core.BarSeries {
	bars := make([]core.Bar, n)
	for i := range bars {
		x := float64(i)
		mid := 100 + 10*math.Sin(x/7) + 4*math.Sin(x/2.3) + x*0.05
		open := mid + 1.5*math.Sin(x*1.7)
		close := mid - 1.5*math.Sin(x*1.3)
		bars[i] = core.Bar{
			Symbol: "TEST",
			Time:   testStart.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, close) + 1 + math.Abs(math.Sin(x)),
			Low:    math.Min(open, close) - 1 - math.Abs(math.Cos(x)),
			Close:  close,
			Volume: 1000 + 400*math.Sin(x/3) + 300*math.Cos(x*1.1),
		}
	}
	return seriesOf(bars)
}

func actions(s *SignalStream) []core.Action {
	out := make([]core.Action, len(s.Signals))
	for i, sig := range s.Signals {
		out[i] = sig.Action
	}
	return out
}

func catalogDef(t *testing.T, name string) Definition {
	t.Helper()
	def, ok := NewCatalogRegistry().Get(name)
	if !ok {
		t.Fatalf("catalog strategy %s not found", name)
	}
	return def
}

// registerTestRule installs a rule for the duration of the test
func registerTestRule(t *testing.T, name string, fn RuleFunc) {
	t.Helper()
	rules[name] = fn
	t.Cleanup(func() { delete(rules, name) })
}
