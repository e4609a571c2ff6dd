package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "signals/AAPL/sma_5_20.csv", "signals/AAPL/sma_5_20.csv"},
		{"tradelab", "bars/AAPL.csv", "tradelab/bars/AAPL.csv"},
		{"tradelab/", "bars/AAPL.csv", "tradelab/bars/AAPL.csv"},
		{"/tradelab/", "/bars/AAPL.csv", "tradelab/bars/AAPL.csv"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.Trim(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		assert.Equal(t, strings.TrimPrefix(tt.path, "/"), s.relative(got))
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{Region: "us-east-1"})
	assert.Error(t, err)

	s, err := NewS3(S3Config{Bucket: "artifacts", Region: "us-east-1", Prefix: "runs/"})
	require.NoError(t, err)
	assert.Equal(t, "runs", s.prefix)
}
