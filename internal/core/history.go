package core

import (
	"sync"
	"time"
)

// DefaultHistorySize is how many imports History keeps when unset.
const DefaultHistorySize = 50

// HistoryEntry summarizes one import attempt, successful or not.
type HistoryEntry struct {
	ImportID         string     `json:"import_id"`
	FileName         string     `json:"file_name"`
	Started          time.Time  `json:"started"`
	Duration         DurationMS `json:"duration_ms"`
	Records          int        `json:"records"`
	Accepted         int        `json:"accepted"`
	SkippedExisting  int        `json:"skipped_existing"`
	SkippedMalicious int        `json:"skipped_malicious"`
	Level            Level      `json:"level"`
	Error            string     `json:"error,omitempty"`
}

// History is a fixed-size log of recent imports, oldest evicted first.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewHistory creates a History holding up to size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{entries: make([]HistoryEntry, size)}
}

// Add records an entry, evicting the oldest when full.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// Recent returns entries newest first.
func (h *History) Recent() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.entries)
	}

	out := make([]HistoryEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out
}
