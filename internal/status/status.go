// Package status maintains the per-module run status mapping read by the
// operators' dashboards.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/tradelab/internal/core"
	"github.com/newthinker/tradelab/internal/storage/archive"
)

// Reporter publishes the outcome of a module run
type Reporter interface {
	Report(ctx context.Context, module string, rec core.StatusRecord) error
}

// NopReporter discards every record
type NopReporter struct{}

// Report implements Reporter
func (NopReporter) Report(context.Context, string, core.StatusRecord) error { return nil }

// FileReporter merges records into a JSON object keyed by module name
type FileReporter struct {
	store archive.Storage
	key   string
	now   func() time.Time

	mu sync.Mutex
}

// NewFileReporter stores the mapping at key; an empty key uses archive.StatusKey
func NewFileReporter(store archive.Storage, key string, now func() time.Time) *FileReporter {
	if key == "" {
		key = archive.StatusKey
	}
	if now == nil {
		now = time.Now
	}
	return &FileReporter{store: store, key: key, now: now}
}

// Record builds a status record stamped with the reporter's clock
func (r *FileReporter) Record(status core.RunStatus, message string) core.StatusRecord {
	return NewRecord(r.now(), status, message)
}

// NewRecord builds a record for the given instant
func NewRecord(at time.Time, status core.RunStatus, message string) core.StatusRecord {
	return core.StatusRecord{
		Date:        at.Format("2006-01-02"),
		LastRunTime: at.Format("2006-01-02 15:04:05"),
		Status:      status,
		Message:     message,
	}
}

// Report replaces the module's entry and keeps the others
func (r *FileReporter) Report(ctx context.Context, module string, rec core.StatusRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mapping, err := r.load(ctx)
	if err != nil {
		return err
	}
	mapping[module] = rec

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if err := r.store.Write(ctx, r.key, append(data, '\n')); err != nil {
		return core.WrapError(core.ErrIO, fmt.Errorf("write %s: %w", r.key, err))
	}
	return nil
}

// Load returns the current mapping
func (r *FileReporter) Load(ctx context.Context) (map[string]core.StatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *FileReporter) load(ctx context.Context) (map[string]core.StatusRecord, error) {
	mapping := make(map[string]core.StatusRecord)

	ok, err := r.store.Exists(ctx, r.key)
	if err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("stat %s: %w", r.key, err))
	}
	if !ok {
		return mapping, nil
	}

	data, err := r.store.Read(ctx, r.key)
	if err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("read %s: %w", r.key, err))
	}
	if len(data) == 0 {
		return mapping, nil
	}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("decode %s: %w", r.key, err))
	}
	return mapping, nil
}
