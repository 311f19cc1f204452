// Package usage keeps a running token ledger of provider requests,
// persisted as JSON in the workspace state directory.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pricelens/internal/atomicfile"
	"pricelens/internal/logging"
)

// FileName of the ledger inside the state directory.
const FileName = "usage.json"

// Counts holds token sums for one dimension.
type Counts struct {
	Requests int64 `json:"requests"`
	Input    int64 `json:"input"`
	Output   int64 `json:"output"`
	Total    int64 `json:"total"`
}

func (c *Counts) add(input, output int) {
	c.Requests++
	c.Input += int64(input)
	c.Output += int64(output)
	c.Total += int64(input + output)
}

// Stats is the persisted aggregate.
type Stats struct {
	Version     string            `json:"version"`
	Total       Counts            `json:"total"`
	ByModel     map[string]Counts `json:"by_model"`
	ByCategory  map[string]Counts `json:"by_category"`
	LastRequest time.Time         `json:"last_request,omitempty"`
}

func newStats() Stats {
	return Stats{
		Version:    "1",
		ByModel:    make(map[string]Counts),
		ByCategory: make(map[string]Counts),
	}
}

// Tracker records usage and saves it after a quiet period.
type Tracker struct {
	mu        sync.Mutex
	stats     Stats
	path      string
	saveDelay time.Duration
	timer     *time.Timer
	now       func() time.Time
}

// NewTracker loads the ledger at path. A missing or corrupt file starts a
// fresh ledger.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}
	t := &Tracker{
		stats:     newStats(),
		path:      path,
		saveDelay: 2 * time.Second,
		now:       time.Now,
	}
	if err := t.load(); err != nil {
		logging.APIWarn("usage ledger %s unreadable, starting fresh: %v", path, err)
		t.stats = newStats()
	}
	return t, nil
}

func (t *Tracker) load() error {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	stats := newStats()
	if err := json.Unmarshal(data, &stats); err != nil {
		return err
	}
	if stats.ByModel == nil {
		stats.ByModel = make(map[string]Counts)
	}
	if stats.ByCategory == nil {
		stats.ByCategory = make(map[string]Counts)
	}
	t.stats = stats
	return nil
}

// Track records one completed request.
func (t *Tracker) Track(model, category string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Total.add(input, output)
	addTo(t.stats.ByModel, model, input, output)
	addTo(t.stats.ByCategory, category, input, output)
	t.stats.LastRequest = t.now()

	if t.timer == nil && t.saveDelay > 0 {
		t.timer = time.AfterFunc(t.saveDelay, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.timer = nil
			if err := t.saveLocked(); err != nil {
				logging.APIWarn("saving usage ledger: %v", err)
			}
		})
	}
}

func addTo(m map[string]Counts, key string, input, output int) {
	c := m[key]
	c.add(input, output)
	m[key] = c
}

// Stats returns a copy of the aggregate.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.ByModel = copyCounts(s.ByModel)
	s.ByCategory = copyCounts(s.ByCategory)
	return s
}

func copyCounts(src map[string]Counts) map[string]Counts {
	dst := make(map[string]Counts, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Flush cancels any pending save and writes the ledger now.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.stats, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.Write(t.path, data)
}

type contextKey struct{}

// NewContext returns a context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}
