package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/tradelab/internal/core"
)

func TestDecodeBars(t *testing.T) {
	data := []byte("Date,Open,High,Low,Close,Volume\n" +
		"2024-03-01,100,101,99,100.5,1200\n" +
		"2024-03-04,100.5,102,100,101.7,900\n")

	series, err := DecodeBars("AAPL", data)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, 2, series.Len())
	assert.Empty(t, series.Fields.Missing(core.AllFields))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), series.Bars[1].Time)
	assert.Equal(t, 101.7, series.Bars[1].Close)
	assert.Equal(t, 900.0, series.Bars[1].Volume)
}

func TestDecodeBars_PartialColumns(t *testing.T) {
	data := []byte("fecha,close\n2024-03-01 15:30:00,10\n")

	series, err := DecodeBars("X", data)
	require.NoError(t, err)
	assert.Equal(t, []core.Field{core.FieldOpen, core.FieldHigh, core.FieldLow, core.FieldVolume},
		series.Fields.Missing(core.AllFields))
	assert.Equal(t, 15, series.Bars[0].Time.Hour())
}

func TestDecodeBars_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"no timestamp": "open,close\n1,2\n",
		"bad time":     "date,close\nyesterday,1\n",
		"bad number":   "date,close\n2024-03-01,abc\n",
		"empty close":  "date,open,close\n2024-03-01,1,\n",
		"empty volume": "date,close,volume\n2024-03-01,1,\n",
		"nan close":    "date,close\n2024-03-01,NaN\n",
		"inf high":     "date,high,close\n2024-03-01,+Inf,1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBars("X", []byte(body))
			assert.Error(t, err)
		})
	}
}

func TestBarsRoundTrip(t *testing.T) {
	series := core.BarSeries{
		Symbol: "AAPL",
		Fields: core.NewFieldSet(core.AllFields...),
		Bars: []core.Bar{
			{Symbol: "AAPL", Time: day0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		},
	}
	data, err := EncodeBars(series)
	require.NoError(t, err)

	back, err := DecodeBars("AAPL", data)
	require.NoError(t, err)
	assert.Equal(t, series.Bars, back.Bars)
}
