package manager

import (
	"github.com/zeromicro/go-zero/core/collection"

	"bithumb-llm-trader/pkg/decision"
)

// History is a fixed-capacity record of a strategy's final decisions.
// Appending beyond capacity evicts the oldest entry.
type History struct {
	capacity int
	ring     *collection.Ring
}

// NewHistory returns an empty history holding at most capacity entries.
// Non-positive capacities fall back to DefaultMaxHistory.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultMaxHistory
	}
	return &History{capacity: capacity, ring: collection.NewRing(capacity)}
}

// Append records entry, evicting the oldest when full.
func (h *History) Append(entry decision.HistoryEntry) {
	h.ring.Add(entry)
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []decision.HistoryEntry {
	items := h.ring.Take()
	out := make([]decision.HistoryEntry, 0, len(items))
	for _, item := range items {
		if e, ok := item.(decision.HistoryEntry); ok {
			out = append(out, e)
		}
	}
	return out
}

func (h *History) Len() int      { return len(h.ring.Take()) }
func (h *History) Capacity() int { return h.capacity }
