package artifact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
	"github.com/newthinker/tradelab/internal/strategy"
)

type failingStore struct{ archive.Storage }

func (failingStore) Write(context.Context, string, []byte) error {
	return errors.New("read-only")
}

func TestWriter(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	w := NewWriter(store)
	ctx := context.Background()

	stream := &strategy.SignalStream{
		Symbol:   "AAPL",
		Strategy: "gap_open",
		Signals:  []core.Signal{{Symbol: "AAPL", Time: day0, Strategy: "gap_open", Action: core.ActionHold}},
	}
	require.NoError(t, w.WriteSignals(ctx, stream))
	require.NoError(t, w.WriteOrders(ctx, "AAPL", "gap_open", nil))
	require.NoError(t, w.WritePairMetrics(ctx, "2024-03-01", core.MetricsRecord{Symbol: "AAPL", Strategy: "gap_open"}))
	require.NoError(t, w.WriteSummary(ctx, "2024-03-01", nil))

	paths, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"metrics/2024-03-01/AAPL/gap_open.csv",
		"metrics/2024-03-01/summary.csv",
		"orders/AAPL/gap_open.csv",
		"signals/AAPL/gap_open.csv",
	}, paths)

	data, err := store.Read(ctx, archive.SignalKey("AAPL", "gap_open"))
	require.NoError(t, err)
	assert.Equal(t, "date,signal,strategy_name\n2024-03-01,hold,gap_open\n", string(data))
}

func TestWriter_WrapsStorageErrors(t *testing.T) {
	w := NewWriter(failingStore{})
	err := w.WriteOrders(context.Background(), "AAPL", "x", nil)
	assert.True(t, errors.Is(err, core.ErrIO))
}
