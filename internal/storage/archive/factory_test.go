package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, s)

	s, err = New(Config{Type: TypeS3, S3: S3Config{Bucket: "b", Region: "eu-west-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s)

	_, err = New(Config{Type: TypeLocalFS})
	assert.Error(t, err)

	_, err = New(Config{Type: "gcs"})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "bars/AAPL.csv", BarKey("AAPL"))
	assert.Equal(t, "signals/AAPL/sma_5_20.csv", SignalKey("AAPL", "sma_5_20"))
	assert.Equal(t, "orders/BRK_B/gap_open.csv", OrderKey("BRK/B", "gap_open"))
	assert.Equal(t, "metrics/2024-03-01/summary.csv", MetricsKey("2024-03-01"))
	assert.Equal(t, "metrics/2024-03-01/AAPL/rsi_reversion.csv", PairMetricsKey("2024-03-01", "AAPL", "rsi_reversion"))
	assert.NotEqual(t, SignalKey("AAPL", "a"), SignalKey("AAPL", "b"))
}
