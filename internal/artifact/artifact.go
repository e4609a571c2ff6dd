// Package artifact encodes signal, order and metrics records as CSV and
// decodes bar files. Output depends only on the inputs, so re-running a
// batch over the same data yields byte-identical files.
package artifact

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"time"
)

// Column headers
var (
	SignalHeader = []string{"date", "signal", "strategy_name"}

	OrderHeader = []string{
		"id", "symbol", "entry_time", "entry_price", "exit_time", "exit_price", "side",
		"strategy_name", "exit_reason", "commission", "gross_return", "net_return", "pnl",
		"holding_period",
	}

	MetricsHeader = []string{
		"symbol", "strategy_name", "trade_count", "win_rate", "avg_return", "median_return",
		"profit_factor", "payoff_ratio", "sharpe_simplified", "max_drawdown",
	}
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// FormatFloat writes the shortest exact decimal; NaN becomes an empty cell
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFloat reads a cell written by FormatFloat
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatTime writes a date for midnight timestamps and a date-time otherwise
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

// ParseTime accepts the layouts written by FormatTime and RFC3339
func ParseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{dateLayout, dateTimeLayout, time.RFC3339, time.RFC3339Nano} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func encode(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
