package alerts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps alerts in process memory when no database is configured
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	alerts map[int64]*Alert
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[int64]*Alert), now: time.Now}
}

// Create assigns an id and stores a
func (m *MemoryStore) Create(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	a.ID = m.nextID
	a.Active = true
	a.CreatedAt = m.now()
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

// List returns the session's alerts, newest first
func (m *MemoryStore) List(_ context.Context, sessionID string, activeOnly bool) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0)
	for _, a := range m.alerts {
		if a.SessionID != sessionID || (activeOnly && !a.Active) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// CountActive counts the session's active alerts
func (m *MemoryStore) CountActive(ctx context.Context, sessionID string) (int, error) {
	active, err := m.List(ctx, sessionID, true)
	return len(active), err
}

// Delete removes one of the session's alerts
func (m *MemoryStore) Delete(_ context.Context, sessionID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.SessionID != sessionID {
		return ErrNotFound
	}
	delete(m.alerts, id)
	return nil
}

// Pending returns every active alert, oldest first
func (m *MemoryStore) Pending(_ context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0)
	for _, a := range m.alerts {
		if a.Active {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MarkTriggered deactivates an active alert
func (m *MemoryStore) MarkTriggered(_ context.Context, id int64, price float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || !a.Active {
		return false, nil
	}
	a.Active = false
	a.TriggeredAt = &at
	a.TriggeredPrice = &price
	return true, nil
}
