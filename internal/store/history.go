package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/i474232898/worldview/internal/worldview"
)

const (
	// HistoryKey is the fixed storage key of the history list.
	HistoryKey = "history"
	// MaxHistory caps the number of remembered cities.
	MaxHistory = 10
)

// HistoryStore is a bounded, most-recent-first, de-duplicated list of city
// names backed by a KV. It is safe for concurrent use.
type HistoryStore struct {
	kv  KV
	key string

	mu     sync.RWMutex
	cities []string
}

// NewHistoryStore creates an empty HistoryStore; call Load to restore state.
func NewHistoryStore(kv KV) *HistoryStore {
	return &HistoryStore{kv: kv, key: HistoryKey}
}

// Record prepends city unless an identical entry already exists, dropping
// the oldest entry beyond MaxHistory.
func (h *HistoryStore) Record(city string) {
	if city == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.cities {
		if c == city {
			return
		}
	}

	next := make([]string, 0, len(h.cities)+1)
	next = append(next, city)
	next = append(next, h.cities...)
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}
	h.cities = next
}

// List returns the cities, most recent first.
func (h *HistoryStore) List() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.cities))
	copy(out, h.cities)
	return out
}

// Load replaces the in-memory list with the stored one. Missing or corrupt
// storage yields an empty list; Load never fails.
func (h *HistoryStore) Load(ctx context.Context) []string {
	var cities []string

	raw, err := h.kv.Get(ctx, h.key)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		log.Printf("ERROR: loading history: %v", err)
	default:
		if err := json.Unmarshal([]byte(raw), &cities); err != nil {
			log.Printf("ERROR: history entry is corrupt, starting empty: %v", err)
			cities = nil
		}
	}

	cities = normalize(cities)

	h.mu.Lock()
	h.cities = cities
	h.mu.Unlock()

	return h.List()
}

// Save writes the list to storage.
func (h *HistoryStore) Save(ctx context.Context) error {
	b, err := json.Marshal(h.List())
	if err != nil {
		return err
	}
	return h.kv.Set(ctx, h.key, string(b))
}

// normalize drops blanks and duplicates and applies the cap, keeping order.
func normalize(cities []string) []string {
	out := make([]string, 0, len(cities))
	seen := make(map[string]bool, len(cities))
	for _, c := range cities {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == MaxHistory {
			break
		}
	}
	return out
}

var _ worldview.History = (*HistoryStore)(nil)
