package indicator

import "math"

// RSI is the Wilder relative strength index. The first bar counts as no
// change; values are defined from index window-1.
func RSI(close []float64, window int) []float64 {
	checkWindow(window)
	n := len(close)
	up := make([]float64, n)
	down := make([]float64, n)
	for i := 1; i < n; i++ {
		d := close[i] - close[i-1]
		switch {
		case math.IsNaN(d):
			up[i], down[i] = math.NaN(), math.NaN()
		case d > 0:
			up[i] = d
		case d < 0:
			down[i] = -d
		}
	}
	avgUp := RMA(up, window)
	avgDown := RMA(down, window)
	out := NaN(n)
	for i := range out {
		u, d := avgUp[i], avgDown[i]
		switch {
		case math.IsNaN(u) || math.IsNaN(d):
		case d == 0 && u == 0:
		case d == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+u/d)
		}
	}
	return out
}

// MACDResult holds the MACD line, its signal line and the histogram
type MACDResult struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// MACD is EMA(fast) - EMA(slow) with an EMA(signal) of the difference
func MACD(close []float64, fast, slow, signal int) MACDResult {
	line := Sub(EMA(close, fast), EMA(close, slow))
	sig := EMA(line, signal)
	return MACDResult{Line: line, Signal: sig, Hist: Sub(line, sig)}
}

// ADXResult holds the average directional index and its directional lines
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX is Wilder's average directional index. DI lines are defined from
// index window and ADX from index 2*window-1.
func ADX(high, low, close []float64, window int) ADXResult {
	checkWindow(window)
	n := len(high)
	res := ADXResult{ADX: NaN(n), PlusDI: NaN(n), MinusDI: NaN(n)}
	if n <= window {
		return res
	}

	tr := TrueRange(high, low, close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	var sTR, sPlus, sMinus float64
	for i := 1; i <= window; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	w := float64(window)
	dx := NaN(n)
	for i := window; i < n; i++ {
		if i > window {
			sTR = sTR - sTR/w + tr[i]
			sPlus = sPlus - sPlus/w + plusDM[i]
			sMinus = sMinus - sMinus/w + minusDM[i]
		}
		if sTR == 0 {
			continue
		}
		pdi := 100 * sPlus / sTR
		mdi := 100 * sMinus / sTR
		res.PlusDI[i] = pdi
		res.MinusDI[i] = mdi
		if pdi+mdi == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
	}

	first := 2*window - 1
	if n <= first {
		return res
	}
	var sum float64
	for i := window; i <= first; i++ {
		if math.IsNaN(dx[i]) {
			return res
		}
		sum += dx[i]
	}
	res.ADX[first] = sum / w
	for i := first + 1; i < n; i++ {
		if math.IsNaN(dx[i]) {
			res.ADX[i] = res.ADX[i-1]
			continue
		}
		res.ADX[i] = (res.ADX[i-1]*(w-1) + dx[i]) / w
	}
	return res
}
