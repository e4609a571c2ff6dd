package strategy

import (
	"math"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/indicator"
)

// Rule kinds
const (
	RuleBreakout        = "breakout"
	RuleROCVolume       = "roc_volume"
	RuleZScoreReversion = "zscore_reversion"
	RuleRangePosition   = "range_position"
	RuleMATrend         = "ma_trend"
	RuleBollinger       = "bollinger"
	RuleMACross         = "ma_cross"
	RuleMACDCross       = "macd_cross"
	RuleMACDHist        = "macd_hist"
	RuleEMAPullback     = "ema_pullback"
	RuleGap             = "gap"
	RuleMAEnvelope      = "ma_envelope"
	RuleRSIReversion    = "rsi_reversion"
	RuleRSIDivergence   = "rsi_divergence"
)

// Frame is the sorted column view of one bar series
type Frame struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

func newFrame(s core.BarSeries) *Frame {
	return &Frame{
		Open:   s.Opens(),
		High:   s.Highs(),
		Low:    s.Lows(),
		Close:  s.Closes(),
		Volume: s.Volumes(),
	}
}

// Len returns the number of bars
func (f *Frame) Len() int {
	return len(f.Close)
}

// ATRRatio is ATR(window)/close
func (f *Frame) ATRRatio(window int) []float64 {
	return indicator.Div(indicator.ATR(f.High, f.Low, f.Close, window), f.Close)
}

// Body is |close - open|
func (f *Frame) Body() []float64 {
	return indicator.Abs(indicator.Sub(f.Close, f.Open))
}

// Column is a named debug series
type Column struct {
	Name   string
	Values []float64
}

// Legs is a buy/sell pair of conditions
type Legs struct {
	Buy  indicator.Mask
	Sell indicator.Mask
}

func bothLegs(m indicator.Mask) Legs {
	return Legs{Buy: m, Sell: m}
}

// RuleOutput is the raw result of a rule. Trigger is the entry condition;
// State is the underlying regime that persistence and next-bar filters
// confirm.
type RuleOutput struct {
	Trigger Legs
	State   Legs
	Debug   []Column
}

// RuleFunc computes the raw rule output over a frame
type RuleFunc func(f *Frame, p Params) RuleOutput

var rules = map[string]RuleFunc{
	RuleBreakout:        breakoutRule,
	RuleROCVolume:       rocVolumeRule,
	RuleZScoreReversion: zscoreReversionRule,
	RuleRangePosition:   rangePositionRule,
	RuleMATrend:         maTrendRule,
	RuleBollinger:       bollingerRule,
	RuleMACross:         maCrossRule,
	RuleMACDCross:       macdCrossRule,
	RuleMACDHist:        macdHistRule,
	RuleEMAPullback:     emaPullbackRule,
	RuleGap:             gapRule,
	RuleMAEnvelope:      maEnvelopeRule,
	RuleRSIReversion:    rsiReversionRule,
	RuleRSIDivergence:   rsiDivergenceRule,
}

// RuleKinds lists the available rule kinds
func RuleKinds() []string {
	out := make([]string, 0, len(rules))
	for k := range rules {
		out = append(out, k)
	}
	return sortedStrings(out)
}

func sameOutput(legs Legs, debug ...Column) RuleOutput {
	return RuleOutput{Trigger: legs, State: legs, Debug: debug}
}

// close breaks above the prior window high or below the prior window low
func breakoutRule(f *Frame, p Params) RuleOutput {
	w := p.Int("window", 20)
	minBreak := p.Float("min_break_pct", 0)

	resistance := indicator.RollingMax(indicator.Shift(f.High, 1), w)
	support := indicator.RollingMin(indicator.Shift(f.Low, 1), w)

	buy := indicator.Gt(f.Close, resistance)
	sell := indicator.Lt(f.Close, support)
	if minBreak > 0 {
		upBreak := indicator.Div(indicator.Sub(f.Close, resistance), resistance)
		downBreak := indicator.Div(indicator.Sub(support, f.Close), support)
		buy = indicator.And(buy, indicator.GtScalar(upBreak, minBreak))
		sell = indicator.And(sell, indicator.GtScalar(downBreak, minBreak))
	}
	return sameOutput(Legs{Buy: buy, Sell: sell},
		Column{"resistance", resistance},
		Column{"support", support},
	)
}

// one-bar return beyond a threshold on anomalous volume
func rocVolumeRule(f *Frame, p Params) RuleOutput {
	minROC := p.Float("min_roc", 0.02)
	minVolZ := p.Float("min_volume_z", 1.6)
	w := p.Int("volume_window", 3)

	roc := indicator.PctChange(f.Close, 1)
	volAvg := indicator.SMA(indicator.Shift(f.Volume, 1), w)
	volZ := indicator.Div(indicator.Sub(f.Volume, volAvg), volAvg)
	anomalous := indicator.GtScalar(volZ, minVolZ)

	buy := indicator.And(indicator.GtScalar(roc, minROC), anomalous)
	sell := indicator.And(indicator.LtScalar(roc, -minROC), anomalous)
	return sameOutput(Legs{Buy: buy, Sell: sell},
		Column{"roc", roc},
		Column{"volume_z", volZ},
	)
}

func zscoreReversionRule(f *Frame, p Params) RuleOutput {
	w := p.Int("window", 20)
	z := indicator.ZScore(f.Close, w)
	buy := indicator.LtScalar(z, p.Float("z_buy", -2.5))
	sell := indicator.GtScalar(z, p.Float("z_sell", 2.5))
	return sameOutput(Legs{Buy: buy, Sell: sell}, Column{"zscore", z})
}

// close near the bottom of the prior window range; buy only
func rangePositionRule(f *Frame, p Params) RuleOutput {
	w := p.Int("window", 100)
	shifted := indicator.Shift(f.Close, 1)
	lo := indicator.RollingMin(shifted, w)
	hi := indicator.RollingMax(shifted, w)
	pos := indicator.Div(indicator.Sub(f.Close, lo), indicator.Sub(hi, lo))

	buy := indicator.LtScalar(pos, p.Float("max_position", 0.1))
	return sameOutput(Legs{Buy: buy, Sell: make(indicator.Mask, f.Len())},
		Column{"range_position", pos},
	)
}

func maTrendRule(f *Frame, p Params) RuleOutput {
	ma := movingAverage(p.String("ma", "sma"), f.Close, p.Int("window", 20))
	return sameOutput(Legs{Buy: indicator.Gt(f.Close, ma), Sell: indicator.Lt(f.Close, ma)},
		Column{"ma", ma},
	)
}

// Bollinger band modes
const (
	BandFixed     = "fixed"
	BandATRScaled = "atr_scaled"
	BandATROffset = "atr_offset"
)

func bollingerRule(f *Frame, p Params) RuleOutput {
	w := p.Int("window", 20)
	k := p.Float("k", 2)
	n := f.Len()

	var mult []float64
	switch mode := p.String("band_mode", BandFixed); mode {
	case BandFixed:
		mult = indicator.Const(n, k)
	case BandATRScaled:
		mult = indicator.Scale(f.ATRRatio(p.Int("atr_window", 14)), k)
	case BandATROffset:
		ratio := f.ATRRatio(p.Int("atr_window", 14))
		mult = make([]float64, n)
		for i, r := range ratio {
			mult[i] = (k - 0.5) + clamp(r, 0, 0.1)*20
		}
	default:
		panic("bollinger: unknown band_mode " + mode)
	}

	bands := indicator.BollingerDynamic(f.Close, w, mult)
	return sameOutput(Legs{Buy: indicator.Gt(f.Close, bands.Upper), Sell: indicator.Lt(f.Close, bands.Lower)},
		Column{"bb_mid", bands.Mid},
		Column{"bb_upper", bands.Upper},
		Column{"bb_lower", bands.Lower},
	)
}

// fast/slow average cross. The state leg is the fast-above-slow regime;
// the trigger is either the cross event or the regime itself.
func maCrossRule(f *Frame, p Params) RuleOutput {
	kind := p.String("ma", "sma")
	fast := movingAverage(kind, f.Close, p.Int("fast", 5))
	slow := movingAverage(kind, f.Close, p.Int("slow", 20))
	return crossOutput(fast, slow, p.String("trigger", "cross"),
		Column{"ma_fast", fast},
		Column{"ma_slow", slow},
	)
}

func macdCrossRule(f *Frame, p Params) RuleOutput {
	m := indicator.MACD(f.Close, p.Int("fast", 12), p.Int("slow", 26), p.Int("signal", 9))
	return crossOutput(m.Line, m.Signal, p.String("trigger", "cross"),
		Column{"macd", m.Line},
		Column{"macd_signal", m.Signal},
	)
}

func crossOutput(fast, slow []float64, trigger string, debug ...Column) RuleOutput {
	state := Legs{Buy: indicator.Gt(fast, slow), Sell: indicator.Lt(fast, slow)}
	switch trigger {
	case "cross":
		return RuleOutput{
			Trigger: Legs{Buy: indicator.CrossAbove(fast, slow), Sell: indicator.CrossBelow(fast, slow)},
			State:   state,
			Debug:   debug,
		}
	case "state":
		return RuleOutput{Trigger: state, State: state, Debug: debug}
	}
	panic("cross: unknown trigger " + trigger)
}

// histogram strengthening on its side of zero
func macdHistRule(f *Frame, p Params) RuleOutput {
	m := indicator.MACD(f.Close, p.Int("fast", 12), p.Int("slow", 26), p.Int("signal", 9))
	diff := indicator.Diff(m.Hist, 1)
	valid := indicator.GtScalar(indicator.Abs(diff), p.Float("min_diff", 0.001))

	rising := indicator.GtScalar(diff, 0)
	falling := indicator.LtScalar(diff, 0)
	buy := indicator.And(indicator.GtScalar(m.Hist, 0), rising, valid)
	sell := indicator.And(indicator.LtScalar(m.Hist, 0), falling, valid)
	return RuleOutput{
		Trigger: Legs{Buy: buy, Sell: sell},
		State:   Legs{Buy: rising, Sell: falling},
		Debug:   []Column{{"macd_hist", m.Hist}, {"macd_hist_diff", diff}},
	}
}

// close pulls back under a rising EMA and holds above the previous close
func emaPullbackRule(f *Frame, p Params) RuleOutput {
	ema := indicator.EMA(f.Close, p.Int("span", 20))
	n := f.Len()

	buy := indicator.Lt(f.Close, indicator.Scale(ema, 1+p.Float("pullback_pct", 0.01)))
	if p.Bool("trend_required", true) {
		buy = indicator.And(buy, indicator.Rising(ema))
	}
	if p.Bool("rebound_required", true) {
		buy = indicator.And(buy, indicator.Ge(f.Close, indicator.Shift(f.Close, 1)))
	}
	return sameOutput(Legs{Buy: buy, Sell: make(indicator.Mask, n)}, Column{"ema", ema})
}

// Gap modes
const (
	GapMomentum = "momentum"
	GapFade     = "fade"
)

// open gaps away from the previous close
func gapRule(f *Frame, p Params) RuleOutput {
	prevClose := indicator.Shift(f.Close, 1)
	gap := indicator.Div(indicator.Sub(f.Open, prevClose), prevClose)
	threshold := p.Float("threshold", 0.03)

	up := indicator.GtScalar(gap, threshold)
	down := indicator.LtScalar(gap, -threshold)
	if minAbs := p.Float("min_abs_pct", 0); minAbs > 0 {
		big := indicator.GtScalar(indicator.Abs(gap), minAbs)
		up = indicator.And(up, big)
		down = indicator.And(down, big)
	}

	legs := Legs{Buy: up, Sell: down}
	switch mode := p.String("mode", GapMomentum); mode {
	case GapMomentum:
	case GapFade:
		legs = Legs{Buy: down, Sell: up}
	default:
		panic("gap: unknown mode " + mode)
	}
	return sameOutput(legs, Column{"gap_pct", gap})
}

// close outside a percentage envelope around the average. The state leg
// is the close direction so a next-bar filter confirms the rebound.
func maEnvelopeRule(f *Frame, p Params) RuleOutput {
	ma := indicator.SMA(f.Close, p.Int("window", 20))
	pct := p.Float("envelope_pct", 0.03)
	upper := indicator.Scale(ma, 1+pct)
	lower := indicator.Scale(ma, 1-pct)

	return RuleOutput{
		Trigger: Legs{Buy: indicator.Lt(f.Close, lower), Sell: indicator.Gt(f.Close, upper)},
		State:   Legs{Buy: indicator.Rising(f.Close), Sell: indicator.Falling(f.Close)},
		Debug:   []Column{{"env_upper", upper}, {"env_lower", lower}},
	}
}

func rsiReversionRule(f *Frame, p Params) RuleOutput {
	rsi := indicator.RSI(f.Close, p.Int("window", 14))
	buy := indicator.LtScalar(rsi, p.Float("oversold", 30))
	sell := indicator.GtScalar(rsi, p.Float("overbought", 70))
	return rsiOutput(rsi, buy, sell, p.Int("confirm_bars", 0))
}

// oversold RSI while close holds above the prior window low, or
// overbought while close stays under the prior window high
func rsiDivergenceRule(f *Frame, p Params) RuleOutput {
	w := p.Int("window", 14)
	rsi := indicator.RSI(f.Close, w)
	shifted := indicator.Shift(f.Close, 1)
	lo := indicator.RollingMin(shifted, w)
	hi := indicator.RollingMax(shifted, w)

	buy := indicator.And(indicator.LtScalar(rsi, p.Float("oversold", 30)), indicator.Gt(f.Close, lo))
	sell := indicator.And(indicator.GtScalar(rsi, p.Float("overbought", 70)), indicator.Lt(f.Close, hi))
	out := rsiOutput(rsi, buy, sell, p.Int("confirm_bars", 0))
	out.Debug = append(out.Debug, Column{"close_min", lo}, Column{"close_max", hi})
	return out
}

// confirm_bars requires RSI to have turned over each of the last n bars
func rsiOutput(rsi []float64, buy, sell indicator.Mask, confirm int) RuleOutput {
	for k := 1; k <= confirm; k++ {
		d := indicator.Diff(rsi, k)
		buy = indicator.And(buy, indicator.GtScalar(d, 0))
		sell = indicator.And(sell, indicator.LtScalar(d, 0))
	}
	return sameOutput(Legs{Buy: buy, Sell: sell}, Column{"rsi", rsi})
}

func movingAverage(kind string, x []float64, window int) []float64 {
	switch kind {
	case "sma":
		return indicator.SMA(x, window)
	case "ema":
		return indicator.EMA(x, window)
	}
	panic("unknown moving average " + kind)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
