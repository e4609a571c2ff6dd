// Package indicator implements technical indicators over ordered float
// series. Every output has the same length as its input and uses NaN to
// mark bars where the value is not yet defined.
package indicator

import "math"

// Mask is a per-bar boolean condition
type Mask []bool

// NaN returns a series of n undefined values
func NaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Const returns a series of n copies of v
func Const(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func checkWindow(window int) {
	if window <= 0 {
		panic("indicator: window must be positive")
	}
}

func checkLen(a, b []float64) {
	if len(a) != len(b) {
		panic("indicator: series length mismatch")
	}
}

// Shift lags x by n bars: out[t] = x[t-n]. The first n values are NaN.
func Shift(x []float64, n int) []float64 {
	if n < 0 {
		panic("indicator: negative shift, use Lead")
	}
	out := NaN(len(x))
	for i := n; i < len(x); i++ {
		out[i] = x[i-n]
	}
	return out
}

// Lead reads n bars ahead: out[t] = x[t+n]. It uses future data and is
// only valid for retrospective research.
func Lead(x []float64, n int) []float64 {
	if n < 0 {
		panic("indicator: negative lead, use Shift")
	}
	out := NaN(len(x))
	for i := 0; i+n < len(x); i++ {
		out[i] = x[i+n]
	}
	return out
}

// Diff returns x[t] - x[t-n]
func Diff(x []float64, n int) []float64 {
	checkWindow(n)
	out := NaN(len(x))
	for i := n; i < len(x); i++ {
		out[i] = x[i] - x[i-n]
	}
	return out
}

// PctChange returns x[t]/x[t-n] - 1, NaN when the base is zero
func PctChange(x []float64, n int) []float64 {
	checkWindow(n)
	out := NaN(len(x))
	for i := n; i < len(x); i++ {
		if x[i-n] == 0 {
			continue
		}
		out[i] = x[i]/x[i-n] - 1
	}
	return out
}

// Add returns a + b
func Add(a, b []float64) []float64 {
	checkLen(a, b)
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Sub returns a - b
func Sub(a, b []float64) []float64 {
	checkLen(a, b)
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Mul returns a * b
func Mul(a, b []float64) []float64 {
	checkLen(a, b)
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// Div returns a / b with NaN where b is zero
func Div(a, b []float64) []float64 {
	checkLen(a, b)
	out := make([]float64, len(a))
	for i := range a {
		if b[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// Scale returns x * k
func Scale(x []float64, k float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * k
	}
	return out
}

// Abs returns |x|
func Abs(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = math.Abs(x[i])
	}
	return out
}

// Gt is a[t] > b[t]; NaN on either side yields false
func Gt(a, b []float64) Mask {
	checkLen(a, b)
	out := make(Mask, len(a))
	for i := range a {
		out[i] = a[i] > b[i]
	}
	return out
}

// Ge is a[t] >= b[t]
func Ge(a, b []float64) Mask {
	checkLen(a, b)
	out := make(Mask, len(a))
	for i := range a {
		out[i] = a[i] >= b[i]
	}
	return out
}

// Lt is a[t] < b[t]
func Lt(a, b []float64) Mask {
	return Gt(b, a)
}

// Le is a[t] <= b[t]
func Le(a, b []float64) Mask {
	return Ge(b, a)
}

// GtScalar is x[t] > v
func GtScalar(x []float64, v float64) Mask {
	out := make(Mask, len(x))
	for i := range x {
		out[i] = x[i] > v
	}
	return out
}

// LtScalar is x[t] < v
func LtScalar(x []float64, v float64) Mask {
	out := make(Mask, len(x))
	for i := range x {
		out[i] = x[i] < v
	}
	return out
}

// CrossAbove is true on the bar where a moves from at-or-below b to above it
func CrossAbove(a, b []float64) Mask {
	checkLen(a, b)
	out := make(Mask, len(a))
	for i := 1; i < len(a); i++ {
		out[i] = a[i] > b[i] && a[i-1] <= b[i-1]
	}
	return out
}

// CrossBelow is true on the bar where a moves from at-or-above b to below it
func CrossBelow(a, b []float64) Mask {
	return CrossAbove(b, a)
}

// Rising is x[t] > x[t-1]
func Rising(x []float64) Mask {
	return Gt(x, Shift(x, 1))
}

// Falling is x[t] < x[t-1]
func Falling(x []float64) Mask {
	return Lt(x, Shift(x, 1))
}

// True returns a mask of n true values
func True(n int) Mask {
	out := make(Mask, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// And returns the element-wise conjunction of all masks
func And(masks ...Mask) Mask {
	if len(masks) == 0 {
		return nil
	}
	out := make(Mask, len(masks[0]))
	copy(out, masks[0])
	for _, m := range masks[1:] {
		if len(m) != len(out) {
			panic("indicator: mask length mismatch")
		}
		for i := range out {
			out[i] = out[i] && m[i]
		}
	}
	return out
}

// Not negates the mask
func (m Mask) Not() Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = !m[i]
	}
	return out
}

// Shift lags the mask by n bars; lagged-in bars are false
func (m Mask) Shift(n int) Mask {
	out := make(Mask, len(m))
	for i := n; i < len(m); i++ {
		out[i] = m[i-n]
	}
	return out
}

// Count returns the number of true bars
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Floats renders the mask as 1/0 for debug output
func (m Mask) Floats() []float64 {
	out := make([]float64, len(m))
	for i, v := range m {
		if v {
			out[i] = 1
		}
	}
	return out
}
