package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI_Monotonic(t *testing.T) {
	rising := RSI([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(rising[0]))
	assert.True(t, math.IsNaN(rising[1]))
	for i := 2; i < len(rising); i++ {
		assert.Equal(t, 100.0, rising[i])
	}

	falling := RSI([]float64{5, 4, 3, 2, 1}, 3)
	for i := 2; i < len(falling); i++ {
		assert.InDelta(t, 0.0, falling[i], 1e-12)
	}
}

func TestRSI_FlatIsUndefined(t *testing.T) {
	rsi := RSI(Const(5, 10), 3)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSI_Bounded(t *testing.T) {
	close := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.3}
	rsi := RSI(close, 5)
	for i := 4; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestMACD_Flat(t *testing.T) {
	m := MACD(Const(40, 10), 12, 26, 9)

	for i := range m.Line {
		assert.InDelta(t, 0.0, m.Line[i], 1e-9)
		assert.InDelta(t, 0.0, m.Hist[i], 1e-9)
	}
}

func TestMACD_Uptrend(t *testing.T) {
	close := make([]float64, 40)
	for i := range close {
		close[i] = float64(100 + i)
	}
	m := MACD(close, 12, 26, 9)

	assert.Greater(t, m.Line[39], 0.0)
	assert.InDelta(t, m.Line[39]-m.Signal[39], m.Hist[39], 1e-12)
}

func TestADX_StrongUptrend(t *testing.T) {
	n := 10
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := 0; i < n; i++ {
		high[i] = float64(i + 1)
		low[i] = float64(i)
		close[i] = float64(i) + 0.5
	}

	res := ADX(high, low, close, 3)

	assert.True(t, math.IsNaN(res.ADX[4]), "ADX is undefined before 2*window-1")
	for i := 5; i < n; i++ {
		assert.InDelta(t, 100.0, res.ADX[i], 1e-9)
	}
	assert.Greater(t, res.PlusDI[3], 0.0)
	assert.Equal(t, 0.0, res.MinusDI[3])
}

func TestADX_ShortSeries(t *testing.T) {
	res := ADX([]float64{1, 2}, []float64{0, 1}, []float64{0.5, 1.5}, 3)
	for _, v := range res.ADX {
		assert.True(t, math.IsNaN(v))
	}
}
