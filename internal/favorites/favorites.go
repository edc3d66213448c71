package favorites

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Favorite is one symbol on a session's watchlist
type Favorite struct {
	SessionID string    `json:"-"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

// Store persists watchlists
type Store interface {
	// Add returns false when the symbol is already a favorite
	Add(ctx context.Context, f Favorite) (bool, error)
	// Remove returns false when the symbol was not a favorite
	Remove(ctx context.Context, sessionID, symbol string) (bool, error)
	// List returns favorites ordered by name
	List(ctx context.Context, sessionID string) ([]Favorite, error)
}

// MemoryStore keeps watchlists in process memory
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]map[string]Favorite
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]Favorite), now: time.Now}
}

// Add stores f unless it already exists
func (m *MemoryStore) Add(_ context.Context, f Favorite) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.items[f.SessionID]
	if !ok {
		set = make(map[string]Favorite)
		m.items[f.SessionID] = set
	}
	if _, exists := set[f.Symbol]; exists {
		return false, nil
	}
	f.AddedAt = m.now()
	set[f.Symbol] = f
	return true, nil
}

// Remove deletes one favorite
func (m *MemoryStore) Remove(_ context.Context, sessionID, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.items[sessionID]
	if _, ok := set[symbol]; !ok {
		return false, nil
	}
	delete(set, symbol)
	return true, nil
}

// List returns the session's favorites ordered by name
func (m *MemoryStore) List(_ context.Context, sessionID string) ([]Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Favorite, 0, len(m.items[sessionID]))
	for _, f := range m.items[sessionID] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}
