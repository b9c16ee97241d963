// Package history keeps a bounded, in-memory log of executed queries.
package history

import (
	"sync"
	"time"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 100

// Entry records one execution.
type Entry struct {
	Query      string    `json:"query"`
	ExecutedAt time.Time `json:"executedAt"`
	DurationMS int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	RowCount   int       `json:"rowCount"`
	Error      string    `json:"error,omitempty"`
	Database   string    `json:"database,omitempty"`
}

// History is a ring of the most recent entries. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Entry // oldest first
	limit   int
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{limit: capacity}
}

// Add appends e, evicting the oldest entry when full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.limit {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, e)
}

// List returns up to n entries, most recent first. n <= 0 means all.
func (h *History) List(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(h.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
