package strategy

import (
	"fmt"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/indicator"
)

// Filter kinds
const (
	FilterPersistence = "persistence"
	FilterNextBar     = "next_bar"
	FilterVolatility  = "volatility"
	FilterTrendBias   = "trend_bias"
	FilterBody        = "body"
	FilterVolume      = "volume"
	FilterCandle      = "candle"
	FilterADX         = "adx"
)

// Filter computes a gate from the bars and the raw rule output. Gates never
// see each other, so the order filters are applied in has no effect.
type Filter interface {
	Kind() string
	// Lookahead reports whether the gate reads bars after the signal bar
	Lookahead() bool
	Gate(f *Frame, out RuleOutput) Legs
}

type filterFactory func(p Params) Filter

var filterFactories = map[string]filterFactory{
	FilterPersistence: func(p Params) Filter { return persistenceFilter{bars: p.Int("bars", 2)} },
	FilterNextBar:     func(p Params) Filter { return nextBarFilter{} },
	FilterVolatility: func(p Params) Filter {
		return volatilityFilter{window: p.Int("window", 14), threshold: p.Float("threshold", 0.008)}
	},
	FilterTrendBias: func(p Params) Filter {
		return trendBiasFilter{ma: p.String("ma", "ema"), window: p.Int("window", 200)}
	},
	FilterBody: func(p Params) Filter {
		return bodyFilter{window: p.Int("window", 20), ratio: p.Float("ratio", 1), directional: p.Bool("directional", false)}
	},
	FilterVolume: func(p Params) Filter {
		return volumeFilter{window: p.Int("window", 20), multiplier: p.Float("multiplier", 1)}
	},
	FilterCandle: func(p Params) Filter {
		return candleFilter{minBodyRange: p.Float("min_body_range", 0)}
	},
	FilterADX: func(p Params) Filter {
		return adxFilter{window: p.Int("window", 14), threshold: p.Float("threshold", 20)}
	},
}

// FilterKinds lists the available filter kinds
func FilterKinds() []string {
	out := make([]string, 0, len(filterFactories))
	for k := range filterFactories {
		out = append(out, k)
	}
	return sortedStrings(out)
}

// filterFields are the bar columns each filter reads besides close
var filterFields = map[string][]core.Field{
	FilterVolatility: {core.FieldHigh, core.FieldLow},
	FilterBody:       {core.FieldOpen},
	FilterVolume:     {core.FieldVolume},
	FilterCandle:     {core.FieldOpen, core.FieldHigh, core.FieldLow},
	FilterADX:        {core.FieldHigh, core.FieldLow},
}

// NewFilter builds a filter from its spec. Params of the wrong type are
// reported as an error.
func NewFilter(spec FilterSpec) (f Filter, err error) {
	factory, ok := filterFactories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", spec.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("filter %s: %v", spec.Kind, r)
		}
	}()
	return factory(spec.Params), nil
}

// state held on each of the trailing bars, the signal bar included
type persistenceFilter struct {
	bars int
}

func (persistenceFilter) Kind() string    { return FilterPersistence }
func (persistenceFilter) Lookahead() bool { return false }

func (p persistenceFilter) Gate(_ *Frame, out RuleOutput) Legs {
	return Legs{
		Buy:  indicator.AllTrue(out.State.Buy, p.bars),
		Sell: indicator.AllTrue(out.State.Sell, p.bars),
	}
}

// state still holds on the bar after the signal. Research only.
type nextBarFilter struct{}

func (nextBarFilter) Kind() string    { return FilterNextBar }
func (nextBarFilter) Lookahead() bool { return true }

func (nextBarFilter) Gate(_ *Frame, out RuleOutput) Legs {
	return Legs{Buy: leadMask(out.State.Buy), Sell: leadMask(out.State.Sell)}
}

func leadMask(m indicator.Mask) indicator.Mask {
	out := make(indicator.Mask, len(m))
	for i := 0; i+1 < len(m); i++ {
		out[i] = m[i+1]
	}
	return out
}

type volatilityFilter struct {
	window    int
	threshold float64
}

func (volatilityFilter) Kind() string    { return FilterVolatility }
func (volatilityFilter) Lookahead() bool { return false }

func (v volatilityFilter) Gate(f *Frame, _ RuleOutput) Legs {
	return bothLegs(indicator.GtScalar(f.ATRRatio(v.window), v.threshold))
}

type trendBiasFilter struct {
	ma     string
	window int
}

func (trendBiasFilter) Kind() string    { return FilterTrendBias }
func (trendBiasFilter) Lookahead() bool { return false }

func (t trendBiasFilter) Gate(f *Frame, _ RuleOutput) Legs {
	ref := movingAverage(t.ma, f.Close, t.window)
	return Legs{Buy: indicator.Gt(f.Close, ref), Sell: indicator.Lt(f.Close, ref)}
}

// body larger than ratio times the prior window mean body
type bodyFilter struct {
	window      int
	ratio       float64
	directional bool
}

func (bodyFilter) Kind() string    { return FilterBody }
func (bodyFilter) Lookahead() bool { return false }

func (b bodyFilter) Gate(f *Frame, _ RuleOutput) Legs {
	body := f.Body()
	avg := indicator.SMA(indicator.Shift(body, 1), b.window)
	big := indicator.Gt(body, indicator.Scale(avg, b.ratio))
	if !b.directional {
		return bothLegs(big)
	}
	return Legs{
		Buy:  indicator.And(big, indicator.Gt(f.Close, f.Open)),
		Sell: indicator.And(big, indicator.Lt(f.Close, f.Open)),
	}
}

// volume above multiplier times the prior window mean
type volumeFilter struct {
	window     int
	multiplier float64
}

func (volumeFilter) Kind() string    { return FilterVolume }
func (volumeFilter) Lookahead() bool { return false }

func (v volumeFilter) Gate(f *Frame, _ RuleOutput) Legs {
	avg := indicator.SMA(indicator.Shift(f.Volume, 1), v.window)
	return bothLegs(indicator.Gt(f.Volume, indicator.Scale(avg, v.multiplier)))
}

// candle colour matches the signal direction
type candleFilter struct {
	minBodyRange float64
}

func (candleFilter) Kind() string    { return FilterCandle }
func (candleFilter) Lookahead() bool { return false }

func (c candleFilter) Gate(f *Frame, _ RuleOutput) Legs {
	buy := indicator.Gt(f.Close, f.Open)
	sell := indicator.Lt(f.Close, f.Open)
	if c.minBodyRange > 0 {
		ratio := indicator.Div(f.Body(), indicator.Sub(f.High, f.Low))
		solid := indicator.GtScalar(ratio, c.minBodyRange)
		buy = indicator.And(buy, solid)
		sell = indicator.And(sell, solid)
	}
	return Legs{Buy: buy, Sell: sell}
}

type adxFilter struct {
	window    int
	threshold float64
}

func (adxFilter) Kind() string    { return FilterADX }
func (adxFilter) Lookahead() bool { return false }

func (a adxFilter) Gate(f *Frame, _ RuleOutput) Legs {
	res := indicator.ADX(f.High, f.Low, f.Close, a.window)
	return bothLegs(indicator.GtScalar(res.ADX, a.threshold))
}
