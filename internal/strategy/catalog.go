package strategy

import "github.com/newthinker/tradelab/internal/core"

var (
	fieldsClose     = []core.Field{core.FieldTimestamp, core.FieldClose}
	fieldsOpenClose = []core.Field{core.FieldTimestamp, core.FieldOpen, core.FieldClose}
	fieldsHLC       = []core.Field{core.FieldTimestamp, core.FieldHigh, core.FieldLow, core.FieldClose}
	fieldsOHLC      = []core.Field{core.FieldTimestamp, core.FieldOpen, core.FieldHigh, core.FieldLow, core.FieldClose}
	fieldsOHLCV     = core.AllFields
	fieldsCV        = []core.Field{core.FieldTimestamp, core.FieldClose, core.FieldVolume}
	fieldsHLCV      = []core.Field{core.FieldTimestamp, core.FieldHigh, core.FieldLow, core.FieldClose, core.FieldVolume}
)

func volatility(threshold float64) FilterSpec {
	return FilterSpec{Kind: FilterVolatility, Params: Params{"window": 14, "threshold": threshold}}
}

func nextBar() FilterSpec {
	return FilterSpec{Kind: FilterNextBar}
}

func trendBias() FilterSpec {
	return FilterSpec{Kind: FilterTrendBias, Params: Params{"ma": "ema", "window": 200}}
}

// Catalog returns the built-in strategy definitions
func Catalog() []Definition {
	return []Definition{
		// breakouts
		{
			Name:        "breakout_volume",
			Description: "close beyond the prior 20-bar extreme on above-average volume and body",
			Rule:        RuleBreakout,
			Required:    fieldsOHLCV,
			Lookback:    30,
			Params:      Params{"window": 20},
			Filters: []FilterSpec{
				{Kind: FilterVolume, Params: Params{"window": 20}},
				{Kind: FilterBody, Params: Params{"window": 20}},
			},
		},
		{
			Name:        "breakout_volume_v4",
			Description: "volume breakout with a relaxed body gate",
			Rule:        RuleBreakout,
			Required:    fieldsOHLCV,
			Lookback:    21,
			Params:      Params{"window": 20},
			Filters: []FilterSpec{
				{Kind: FilterVolume, Params: Params{"window": 20}},
				{Kind: FilterBody, Params: Params{"window": 20, "ratio": 0.2}},
			},
		},
		{
			Name:        "support_resistance",
			Description: "close at least 1% through the prior 10-bar support or resistance",
			Rule:        RuleBreakout,
			Required:    fieldsHLC,
			Lookback:    11,
			Params:      Params{"window": 10, "min_break_pct": 0.01},
		},
		{
			Name:        "roc_volume_rupture",
			Description: "2% one-bar move on anomalous volume",
			Rule:        RuleROCVolume,
			Required:    fieldsCV,
			Lookback:    4,
			Params:      Params{"min_roc": 0.02, "min_volume_z": 1.6, "volume_window": 3},
		},

		// mean reversion
		{
			Name:        "zscore_reversion",
			Description: "close beyond 2.5 standard deviations from its 20-bar mean",
			Rule:        RuleZScoreReversion,
			Required:    fieldsClose,
			Lookback:    20,
			Params:      Params{"window": 20, "z_buy": -2.5, "z_sell": 2.5},
		},
		{
			Name:        "low_price_filters",
			Description: "close in the bottom decile of its prior 100-bar range while trending on volume",
			Rule:        RuleRangePosition,
			Required:    fieldsHLCV,
			Lookback:    100,
			Params:      Params{"window": 100, "max_position": 0.1},
			Filters: []FilterSpec{
				{Kind: FilterADX, Params: Params{"window": 14, "threshold": 20}},
				{Kind: FilterVolume, Params: Params{"window": 20}},
			},
		},
		{
			Name:        "ma_envelope_reversal",
			Description: "close outside a 3% envelope around the 20-bar average",
			Rule:        RuleMAEnvelope,
			Required:    fieldsHLC,
			Lookback:    21,
			Params:      Params{"window": 20, "envelope_pct": 0.03},
		},
		{
			Name:        "ma_envelope_reversal_confirmed",
			Description: "envelope reversal confirmed by the next close moving back",
			Rule:        RuleMAEnvelope,
			Required:    fieldsHLC,
			Lookback:    21,
			Params:      Params{"window": 20, "envelope_pct": 0.03},
			Filters:     []FilterSpec{nextBar(), volatility(0.008)},
		},
		{
			Name:        "ma_envelope_reversal_v3",
			Description: "envelope reversal on a candle of the signal colour",
			Rule:        RuleMAEnvelope,
			Required:    fieldsOHLC,
			Lookback:    21,
			Params:      Params{"window": 20, "envelope_pct": 0.03},
			Filters:     []FilterSpec{{Kind: FilterCandle}, volatility(0.008)},
		},
		{
			Name:        "rsi_reversion",
			Description: "RSI(14) below 30 or above 70",
			Rule:        RuleRSIReversion,
			Required:    fieldsClose,
			Lookback:    15,
			Params:      Params{"window": 14, "oversold": 30, "overbought": 70},
		},
		{
			Name:        "rsi_reversion_v3",
			Description: "RSI extreme turning back, on sufficient volatility",
			Rule:        RuleRSIReversion,
			Required:    fieldsHLC,
			Lookback:    15,
			Params:      Params{"window": 14, "oversold": 30, "overbought": 70, "confirm_bars": 1},
			Filters:     []FilterSpec{volatility(0.008)},
		},
		{
			Name:        "rsi_divergence",
			Description: "RSI extreme while close holds inside the prior 14-bar range",
			Rule:        RuleRSIDivergence,
			Required:    fieldsClose,
			Lookback:    15,
			Params:      Params{"window": 14, "oversold": 30, "overbought": 70},
		},
		{
			Name:        "rsi_divergence_v3",
			Description: "RSI divergence with a two-bar RSI turn on a solid candle",
			Rule:        RuleRSIDivergence,
			Required:    fieldsOHLC,
			Lookback:    16,
			Params:      Params{"window": 14, "oversold": 30, "overbought": 70, "confirm_bars": 2},
			Filters: []FilterSpec{
				{Kind: FilterCandle, Params: Params{"min_body_range": 0.5}},
				volatility(0.008),
			},
		},

		// trend
		{
			Name:        "adx_trend",
			Description: "close against its 20-bar average while ADX(14) exceeds 20",
			Rule:        RuleMATrend,
			Required:    fieldsHLC,
			Lookback:    20,
			Params:      Params{"window": 20},
			Filters:     []FilterSpec{{Kind: FilterADX, Params: Params{"window": 14, "threshold": 20}}},
		},
		{
			Name:        "adx_trend_v4",
			Description: "ADX trend with a threshold of 10",
			Rule:        RuleMATrend,
			Required:    fieldsHLC,
			Lookback:    20,
			Params:      Params{"window": 20},
			Filters:     []FilterSpec{{Kind: FilterADX, Params: Params{"window": 14, "threshold": 10}}},
		},
		{
			Name:        "bollinger_breakout",
			Description: "close outside 2-sigma bands",
			Rule:        RuleBollinger,
			Required:    fieldsHLC,
			Lookback:    30,
			Params:      Params{"window": 20, "k": 2.0, "band_mode": BandFixed},
		},
		{
			Name:        "bollinger_breakout_dynamic",
			Description: "bands widened by relative volatility, gated by ATR, volume and range",
			Rule:        RuleBollinger,
			Required:    fieldsOHLCV,
			Lookback:    30,
			Params:      Params{"window": 20, "k": 2.0, "band_mode": BandATROffset},
			Filters: []FilterSpec{
				volatility(0.01),
				{Kind: FilterVolume, Params: Params{"window": 20}},
				{Kind: FilterBody, Params: Params{"window": 20}},
			},
		},
		{
			Name:        "bollinger_breakout_v3",
			Description: "bands scaled by ATR ratio with body, volume and volatility gates",
			Rule:        RuleBollinger,
			Required:    fieldsOHLCV,
			Lookback:    21,
			Params:      Params{"window": 20, "k": 2.0, "band_mode": BandATRScaled},
			Filters: []FilterSpec{
				{Kind: FilterBody, Params: Params{"window": 20}},
				{Kind: FilterVolume, Params: Params{"window": 20, "multiplier": 1.1}},
				volatility(0.01),
			},
		},

		// moving average crosses
		{
			Name:        "ema_10_30",
			Description: "EMA 10 above EMA 30 with trend and volatility gates",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    35,
			Params:      Params{"ma": "ema", "fast": 10, "slow": 30, "trigger": "state"},
			Filters:     []FilterSpec{trendBias(), volatility(0.01)},
		},
		{
			Name:        "ema_10_30_cross",
			Description: "EMA 10/30 cross confirmed next bar, trend and volatility gated",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    50,
			Params:      Params{"ma": "ema", "fast": 10, "slow": 30, "trigger": "cross"},
			Filters:     []FilterSpec{nextBar(), volatility(0.01), trendBias()},
		},
		{
			Name:        "ema_9_21",
			Description: "EMA 9 above EMA 21 for two bars",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    30,
			Params:      Params{"ma": "ema", "fast": 9, "slow": 21, "trigger": "state"},
			Filters: []FilterSpec{
				{Kind: FilterPersistence, Params: Params{"bars": 2}},
				volatility(0.008),
			},
		},
		{
			Name:        "ema_9_21_v4",
			Description: "EMA 9/21 persistence with a 0.95% volatility gate",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    30,
			Params:      Params{"ma": "ema", "fast": 9, "slow": 21, "trigger": "state"},
			Filters: []FilterSpec{
				{Kind: FilterPersistence, Params: Params{"bars": 2}},
				volatility(0.0095),
			},
		},
		{
			Name:        "sma_5_20",
			Description: "SMA 5/20 cross",
			Rule:        RuleMACross,
			Required:    fieldsClose,
			Lookback:    21,
			Params:      Params{"ma": "sma", "fast": 5, "slow": 20},
		},
		{
			Name:        "sma_5_20_v3",
			Description: "SMA 5/20 cross confirmed next bar on sufficient volatility",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    30,
			Params:      Params{"ma": "sma", "fast": 5, "slow": 20},
			Filters:     []FilterSpec{volatility(0.008), nextBar()},
		},
		{
			Name:        "sma_10_50",
			Description: "SMA 10/50 cross",
			Rule:        RuleMACross,
			Required:    fieldsClose,
			Lookback:    51,
			Params:      Params{"ma": "sma", "fast": 10, "slow": 50},
		},
		{
			Name:        "sma_10_50_v3",
			Description: "SMA 10/50 cross confirmed next bar on sufficient volatility",
			Rule:        RuleMACross,
			Required:    fieldsHLC,
			Lookback:    60,
			Params:      Params{"ma": "sma", "fast": 10, "slow": 50},
			Filters:     []FilterSpec{nextBar(), volatility(0.008)},
		},
		{
			Name:        "macd_cross",
			Description: "MACD(12,26,9) signal line cross",
			Rule:        RuleMACDCross,
			Required:    fieldsClose,
			Lookback:    35,
			Params:      Params{"fast": 12, "slow": 26, "signal": 9},
		},
		{
			Name:        "macd_hist_reversal",
			Description: "MACD histogram strengthening on its side of zero",
			Rule:        RuleMACDHist,
			Required:    fieldsClose,
			Lookback:    35,
			Params:      Params{"fast": 12, "slow": 26, "signal": 9, "min_diff": 0.001},
		},

		// pullbacks and gaps
		{
			Name:        "ema_pullback",
			Description: "pullback under a rising EMA 20, sell when the setup breaks",
			Rule:        RuleEMAPullback,
			Required:    fieldsHLC,
			Lookback:    25,
			Params:      Params{"span": 20, "pullback_pct": 0.01},
			Filters:     []FilterSpec{volatility(0.008)},
			ExitOnBreak: true,
		},
		{
			Name:        "ema_pullback_v3",
			Description: "EMA pullback with a 1% volatility gate",
			Rule:        RuleEMAPullback,
			Required:    fieldsHLC,
			Lookback:    25,
			Params:      Params{"span": 20, "pullback_pct": 0.01},
			Filters:     []FilterSpec{volatility(0.01)},
			ExitOnBreak: true,
		},
		{
			Name:        "gap_open",
			Description: "trade in the direction of a 3% opening gap",
			Rule:        RuleGap,
			Required:    fieldsOpenClose,
			Lookback:    3,
			Params:      Params{"threshold": 0.03, "mode": GapMomentum},
		},
		{
			Name:        "gap_open_v3",
			Description: "gap momentum with a minimum absolute gap",
			Rule:        RuleGap,
			Required:    fieldsOpenClose,
			Lookback:    3,
			Params:      Params{"threshold": 0.03, "min_abs_pct": 0.01, "mode": GapMomentum},
		},
		{
			Name:        "gap_fade",
			Description: "fade a 3% opening gap",
			Rule:        RuleGap,
			Required:    fieldsOHLC,
			Lookback:    10,
			Params:      Params{"threshold": 0.03, "min_abs_pct": 0.01, "mode": GapFade},
		},
	}
}
