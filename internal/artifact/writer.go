package artifact

import (
	"context"
	"fmt"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
	"github.com/newthinker/tradelab/internal/strategy"
)

// Writer persists encoded artifacts under the archive key layout
type Writer struct {
	store archive.Storage
}

// NewWriter creates a Writer over the given storage
func NewWriter(store archive.Storage) *Writer {
	return &Writer{store: store}
}

// WriteSignals stores the signal stream of one pair
func (w *Writer) WriteSignals(ctx context.Context, stream *strategy.SignalStream) error {
	data, err := EncodeSignals(stream)
	if err != nil {
		return err
	}
	return w.put(ctx, archive.SignalKey(stream.Symbol, stream.Strategy), data)
}

// WriteOrders stores the orders of one pair
func (w *Writer) WriteOrders(ctx context.Context, symbol, strategyName string, orders []core.Order) error {
	data, err := EncodeOrders(orders)
	if err != nil {
		return err
	}
	return w.put(ctx, archive.OrderKey(symbol, strategyName), data)
}

// WritePairMetrics stores the single metrics row of one pair
func (w *Writer) WritePairMetrics(ctx context.Context, runDate string, rec core.MetricsRecord) error {
	data, err := EncodeMetrics([]core.MetricsRecord{rec})
	if err != nil {
		return err
	}
	return w.put(ctx, archive.PairMetricsKey(runDate, rec.Symbol, rec.Strategy), data)
}

// WriteSummary stores the batch metrics summary
func (w *Writer) WriteSummary(ctx context.Context, runDate string, records []core.MetricsRecord) error {
	data, err := EncodeMetrics(records)
	if err != nil {
		return err
	}
	return w.put(ctx, archive.MetricsKey(runDate), data)
}

func (w *Writer) put(ctx context.Context, key string, data []byte) error {
	if err := w.store.Write(ctx, key, data); err != nil {
		return core.WrapError(core.ErrIO, fmt.Errorf("write %s: %w", key, err))
	}
	return nil
}
