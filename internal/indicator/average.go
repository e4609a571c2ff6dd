package indicator

import "math"

// SMA is the simple moving average over window bars. A window holding
// any NaN value produces NaN.
func SMA(x []float64, window int) []float64 {
	checkWindow(window)
	out := NaN(len(x))
	var sum float64
	nans := 0
	for i := range x {
		if math.IsNaN(x[i]) {
			nans++
		} else {
			sum += x[i]
		}
		if i >= window {
			old := x[i-window]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i >= window-1 && nans == 0 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA is the recursive exponential average with k = 2/(span+1), seeded by
// the first defined observation. Leading NaNs stay NaN and later NaNs carry
// the previous value forward.
func EMA(x []float64, span int) []float64 {
	checkWindow(span)
	return ewm(x, 2.0/float64(span+1), 0)
}

// RMA is Wilder's smoothing (alpha = 1/window). Values before window-1
// defined observations are NaN.
func RMA(x []float64, window int) []float64 {
	checkWindow(window)
	return ewm(x, 1.0/float64(window), window)
}

func ewm(x []float64, alpha float64, minPeriods int) []float64 {
	out := NaN(len(x))
	prev := math.NaN()
	seen := 0
	for i, v := range x {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
			seen++
		default:
			prev = alpha*v + (1-alpha)*prev
			seen++
		}
		if seen > 0 && seen >= minPeriods {
			out[i] = prev
		}
	}
	return out
}
