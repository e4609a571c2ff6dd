package artifact

import (
	"fmt"

	"github.com/newthinker/tradelab/internal/strategy"
)

// EncodeSignals writes one row per bar. Debug columns follow the fixed
// columns in the order the evaluator produced them.
func EncodeSignals(stream *strategy.SignalStream) ([]byte, error) {
	header := append([]string{}, SignalHeader...)
	for _, col := range stream.Debug {
		if len(col.Values) != len(stream.Signals) {
			return nil, fmt.Errorf("debug column %s has %d values for %d signals", col.Name, len(col.Values), len(stream.Signals))
		}
		header = append(header, col.Name)
	}

	rows := make([][]string, len(stream.Signals))
	for i, sig := range stream.Signals {
		row := make([]string, 0, len(header))
		row = append(row, FormatTime(sig.Time), string(sig.Action), sig.Strategy)
		for _, col := range stream.Debug {
			row = append(row, FormatFloat(col.Values[i]))
		}
		rows[i] = row
	}
	return encode(header, rows)
}
