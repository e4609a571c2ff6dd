package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/tradelab/internal/indicator"
)

func stateOutput(buy, sell indicator.Mask) RuleOutput {
	return RuleOutput{State: Legs{Buy: buy, Sell: sell}}
}

func TestPersistenceFilter(t *testing.T) {
	f, err := NewFilter(FilterSpec{Kind: FilterPersistence, Params: Params{"bars": 3}})
	require.NoError(t, err)
	assert.False(t, f.Lookahead())

	out := stateOutput(
		indicator.Mask{true, true, true, false, true, true, true, true},
		indicator.Mask{false, false, false, true, false, false, false, false},
	)
	gate := f.Gate(nil, out)

	assert.Equal(t, indicator.Mask{false, false, true, false, false, false, true, true}, gate.Buy)
	assert.Equal(t, make(indicator.Mask, 8), gate.Sell)
}

func TestNextBarFilter(t *testing.T) {
	f, err := NewFilter(FilterSpec{Kind: FilterNextBar})
	require.NoError(t, err)
	assert.True(t, f.Lookahead())

	gate := f.Gate(nil, stateOutput(
		indicator.Mask{false, true, true, false},
		indicator.Mask{true, false, false, true},
	))

	assert.Equal(t, indicator.Mask{true, true, false, false}, gate.Buy)
	assert.Equal(t, indicator.Mask{false, false, true, false}, gate.Sell, "last bar has no successor")
}

func TestVolumeFilter_UsesPriorBarsOnly(t *testing.T) {
	frame := newFrame(spikeSeries())
	f, err := NewFilter(FilterSpec{Kind: FilterVolume, Params: Params{"window": 20, "multiplier": 2.5}})
	require.NoError(t, err)

	gate := f.Gate(frame, RuleOutput{})
	assert.True(t, gate.Buy[25])
	assert.True(t, gate.Sell[25])
	assert.Equal(t, 1, gate.Buy.Count())
}

func TestBodyFilter_Directional(t *testing.T) {
	frame := newFrame(spikeSeries())

	plain, _ := NewFilter(FilterSpec{Kind: FilterBody, Params: Params{"window": 20}})
	directional, _ := NewFilter(FilterSpec{Kind: FilterBody, Params: Params{"window": 20, "directional": true}})

	g := plain.Gate(frame, RuleOutput{})
	assert.True(t, g.Buy[25])
	assert.True(t, g.Sell[25])

	d := directional.Gate(frame, RuleOutput{})
	assert.True(t, d.Buy[25])
	assert.False(t, d.Sell[25], "bullish body must not confirm a sell")
}

func TestCandleFilter(t *testing.T) {
	series := spikeSeries()
	series.Bars[24].Open = 101
	series.Bars[24].High = 102
	series.Bars[24].Low = 99
	frame := newFrame(series)

	f, _ := NewFilter(FilterSpec{Kind: FilterCandle})
	g := f.Gate(frame, RuleOutput{})
	assert.True(t, g.Buy[25])
	assert.True(t, g.Sell[24])
	assert.False(t, g.Buy[0], "doji is neither colour")

	solid, _ := NewFilter(FilterSpec{Kind: FilterCandle, Params: Params{"min_body_range": 0.5}})
	s := solid.Gate(frame, RuleOutput{})
	assert.True(t, s.Buy[25], "body 15 over range 16")
	assert.False(t, s.Sell[24], "body 1 over range 3")
}

func TestTrendBiasFilter(t *testing.T) {
	frame := newFrame(spikeSeries())
	f, _ := NewFilter(FilterSpec{Kind: FilterTrendBias, Params: Params{"ma": "sma", "window": 10}})

	g := f.Gate(frame, RuleOutput{})
	assert.True(t, g.Buy[25])
	assert.False(t, g.Sell[25])
	assert.False(t, g.Buy[20], "close equal to its average passes neither side")
}

func TestVolatilityFilter(t *testing.T) {
	frame := newFrame(waveSeries(60))
	low, _ := NewFilter(FilterSpec{Kind: FilterVolatility, Params: Params{"threshold": 0.0001}})
	high, _ := NewFilter(FilterSpec{Kind: FilterVolatility, Params: Params{"threshold": 10}})

	assert.False(t, low.Gate(frame, RuleOutput{}).Buy[5], "ATR undefined during warm-up")
	assert.True(t, low.Gate(frame, RuleOutput{}).Buy[40])
	assert.Equal(t, 0, high.Gate(frame, RuleOutput{}).Buy.Count())
}

func TestNewFilter_Unknown(t *testing.T) {
	_, err := NewFilter(FilterSpec{Kind: "moon_phase"})
	assert.Error(t, err)
}

func TestFilterKinds(t *testing.T) {
	kinds := FilterKinds()
	assert.Contains(t, kinds, FilterPersistence)
	assert.Contains(t, kinds, FilterADX)
	assert.IsIncreasing(t, kinds)
}
