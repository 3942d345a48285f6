package page

import (
	"encoding/json"
	"sync"
)

// HistoryEntry is one pushed browser history state.
type HistoryEntry struct {
	State json.RawMessage `json:"state,omitempty"`
	Title string          `json:"title"`
	URL   string          `json:"url"`
}

// History models the browser history stack written by pushState.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// Push appends an entry, like history.pushState(state, title, url).
func (h *History) Push(e HistoryEntry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
}

// Current returns the most recent entry.
func (h *History) Current() (HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) reset(entries []HistoryEntry) {
	h.mu.Lock()
	h.entries = append([]HistoryEntry(nil), entries...)
	h.mu.Unlock()
}
