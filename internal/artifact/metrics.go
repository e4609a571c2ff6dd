package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/newthinker/tradelab/internal/core"
)

// EncodeMetrics writes the records sorted by (symbol, strategy)
func EncodeMetrics(records []core.MetricsRecord) ([]byte, error) {
	sorted := make([]core.MetricsRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Strategy < sorted[j].Strategy
	})

	rows := make([][]string, len(sorted))
	for i, m := range sorted {
		rows[i] = []string{
			m.Symbol,
			m.Strategy,
			strconv.Itoa(m.TradeCount),
			FormatFloat(m.WinRate),
			FormatFloat(m.AvgReturn),
			FormatFloat(m.MedianReturn),
			FormatFloat(m.ProfitFactor),
			FormatFloat(m.PayoffRatio),
			FormatFloat(m.SharpeSimplified),
			FormatFloat(m.MaxDrawdown),
		}
	}
	return encode(MetricsHeader, rows)
}

// DecodeMetrics reads a file written by EncodeMetrics
func DecodeMetrics(data []byte) ([]core.MetricsRecord, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metrics file is empty")
	}
	if len(records[0]) != len(MetricsHeader) {
		return nil, fmt.Errorf("metrics header has %d columns, want %d", len(records[0]), len(MetricsHeader))
	}

	out := make([]core.MetricsRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		n, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d trade_count: %w", i+1, err)
		}
		vals := make([]float64, 7)
		for j := range vals {
			v, err := ParseFloat(rec[3+j])
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", i+1, MetricsHeader[3+j], err)
			}
			vals[j] = v
		}
		out = append(out, core.MetricsRecord{
			Symbol:           rec[0],
			Strategy:         rec[1],
			TradeCount:       n,
			WinRate:          vals[0],
			AvgReturn:        vals[1],
			MedianReturn:     vals[2],
			ProfitFactor:     vals[3],
			PayoffRatio:      vals[4],
			SharpeSimplified: vals[5],
			MaxDrawdown:      vals[6],
		})
	}
	return out, nil
}
