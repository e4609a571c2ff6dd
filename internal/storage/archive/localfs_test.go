package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte("date,signal,strategy_name\n")

	if err := fs.Write(ctx, SignalKey("AAPL", "sma_5_20"), data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "signals/AAPL/sma_5_20.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_WriteReplacesWithoutTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "orders/AAPL/x.csv", []byte("first")))
	require.NoError(t, fs.Write(ctx, "orders/AAPL/x.csv", []byte("second")))

	got, err := fs.Read(ctx, "orders/AAPL/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "orders", "AAPL"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.txt", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "signals/MSFT/b.csv", []byte("b"))
	fs.Write(ctx, "signals/AAPL/a.csv", []byte("a"))
	fs.Write(ctx, "orders/AAPL/c.csv", []byte("c"))

	paths, err := fs.List(ctx, "signals")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	assert.Equal(t, []string{"signals/AAPL/a.csv", "signals/MSFT/b.csv"}, paths)

	missing, err := fs.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLocalFS_StaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(filepath.Join(dir, "root"))
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "../escape.txt", []byte("x")))

	_, err := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	exists, _ := fs.Exists(ctx, "escape.txt")
	assert.True(t, exists)
}

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "delete.txt", []byte("data"))
	fs.Delete(ctx, "delete.txt")

	exists, _ := fs.Exists(ctx, "delete.txt")
	if exists {
		t.Error("file should be deleted")
	}
}
