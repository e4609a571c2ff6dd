package indicator

import "math"

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). The first
// bar has no previous close and uses high-low.
func TrueRange(high, low, close []float64) []float64 {
	checkLen(high, low)
	checkLen(high, close)
	out := make([]float64, len(high))
	for i := range high {
		tr := high[i] - low[i]
		if i > 0 {
			pc := close[i-1]
			tr = math.Max(tr, math.Max(math.Abs(high[i]-pc), math.Abs(low[i]-pc)))
		}
		out[i] = tr
	}
	return out
}

// ATR is the true range averaged with Wilder smoothing. The first value
// is the simple mean of the first window true ranges.
func ATR(high, low, close []float64, window int) []float64 {
	checkWindow(window)
	tr := TrueRange(high, low, close)
	out := NaN(len(tr))
	if len(tr) < window {
		return out
	}
	var sum float64
	for i := 0; i < window; i++ {
		sum += tr[i]
	}
	out[window-1] = sum / float64(window)
	for i := window; i < len(tr); i++ {
		out[i] = (out[i-1]*float64(window-1) + tr[i]) / float64(window)
	}
	return out
}

// Bands holds a middle line with upper and lower envelopes
type Bands struct {
	Mid   []float64
	Upper []float64
	Lower []float64
}

// Bollinger returns SMA(window) ± k·RollingStd(window)
func Bollinger(x []float64, window int, k float64) Bands {
	return BollingerDynamic(x, window, Const(len(x), k))
}

// BollingerDynamic is Bollinger with a per-bar multiplier k[t]
func BollingerDynamic(x []float64, window int, k []float64) Bands {
	checkLen(x, k)
	mid := SMA(x, window)
	width := Mul(RollingStd(x, window), k)
	return Bands{Mid: mid, Upper: Add(mid, width), Lower: Sub(mid, width)}
}
