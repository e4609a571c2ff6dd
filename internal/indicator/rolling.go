package indicator

import "math"

type windowFunc func(w []float64) float64

// rolling applies fn to each full window; windows holding NaN yield NaN
func rolling(x []float64, window int, fn windowFunc) []float64 {
	checkWindow(window)
	out := NaN(len(x))
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func hasNaN(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// RollingStd is the sample standard deviation over window bars
func RollingStd(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		var mean float64
		for _, v := range w {
			mean += v
		}
		mean /= float64(len(w))
		var ss float64
		for _, v := range w {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(w)-1))
	})
}

// RollingMax is the highest value over window bars
func RollingMax(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Max(m, v)
		}
		return m
	})
}

// RollingMin is the lowest value over window bars
func RollingMin(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Min(m, v)
		}
		return m
	})
}

// ZScore is (x - SMA) / RollingStd, NaN where the deviation is zero
func ZScore(x []float64, window int) []float64 {
	return Div(Sub(x, SMA(x, window)), RollingStd(x, window))
}

// AllTrue is true where the mask held on each of the window trailing bars
func AllTrue(m Mask, window int) Mask {
	checkWindow(window)
	out := make(Mask, len(m))
	run := 0
	for i, v := range m {
		if v {
			run++
		} else {
			run = 0
		}
		out[i] = run >= window
	}
	return out
}
