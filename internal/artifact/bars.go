package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/newthinker/tradelab/internal/core"
)

// header aliases of the timestamp column
var timestampAliases = []string{"timestamp", "date", "datetime", "time", "fecha"}

var barColumns = []core.Field{core.FieldOpen, core.FieldHigh, core.FieldLow, core.FieldClose, core.FieldVolume}

// EncodeBars writes a full OHLCV file readable by DecodeBars
func EncodeBars(series core.BarSeries) ([]byte, error) {
	rows := make([][]string, len(series.Bars))
	for i, b := range series.Bars {
		rows[i] = []string{
			FormatTime(b.Time),
			FormatFloat(b.Open),
			FormatFloat(b.High),
			FormatFloat(b.Low),
			FormatFloat(b.Close),
			FormatFloat(b.Volume),
		}
	}
	header := make([]string, len(core.AllFields))
	for i, f := range core.AllFields {
		header[i] = string(f)
	}
	return encode(header, rows)
}

// DecodeBars reads a header-driven bar file. Only the timestamp column is
// mandatory; the returned Fields set lists the columns that were present so
// the evaluator can reject strategies needing a missing one. Every cell of a
// present price or volume column must hold a finite number.
func DecodeBars(symbol string, data []byte) (core.BarSeries, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return core.BarSeries{}, fmt.Errorf("bar file for %s is empty", symbol)
	}
	if err != nil {
		return core.BarSeries{}, fmt.Errorf("reading header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for idx, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = idx
		}
	}

	tsIdx := -1
	for _, alias := range timestampAliases {
		if idx, ok := colIdx[alias]; ok {
			tsIdx = idx
			break
		}
	}
	if tsIdx < 0 {
		return core.BarSeries{}, fmt.Errorf("bar file for %s has no timestamp column", symbol)
	}

	fields := core.NewFieldSet(core.FieldTimestamp)
	present := make(map[core.Field]int)
	for _, f := range barColumns {
		if idx, ok := colIdx[string(f)]; ok {
			fields[f] = struct{}{}
			present[f] = idx
		}
	}

	series := core.BarSeries{Symbol: symbol, Fields: fields}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.BarSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= tsIdx {
			return core.BarSeries{}, fmt.Errorf("line %d: missing timestamp", line)
		}

		ts, err := ParseTime(strings.TrimSpace(rec[tsIdx]))
		if err != nil {
			return core.BarSeries{}, fmt.Errorf("line %d timestamp: %w", line, err)
		}
		bar := core.Bar{Symbol: symbol, Time: ts}
		for _, f := range barColumns {
			idx, ok := present[f]
			if !ok {
				continue
			}
			if idx >= len(rec) {
				return core.BarSeries{}, fmt.Errorf("line %d: missing %s", line, f)
			}
			v, err := ParseFloat(strings.TrimSpace(rec[idx]))
			if err != nil {
				return core.BarSeries{}, fmt.Errorf("line %d %s: %w", line, f, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.BarSeries{}, fmt.Errorf("line %d: %s is empty or not finite", line, f)
			}
			setField(&bar, f, v)
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, nil
}

func setField(b *core.Bar, f core.Field, v float64) {
	switch f {
	case core.FieldOpen:
		b.Open = v
	case core.FieldHigh:
		b.High = v
	case core.FieldLow:
		b.Low = v
	case core.FieldClose:
		b.Close = v
	case core.FieldVolume:
		b.Volume = v
	}
}
