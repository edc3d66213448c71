package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stockpilot/pkg/redis"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Store persists sessions
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// MemoryStore keeps sessions in process memory with idle expiry
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored session
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && m.now().Sub(s.LastSeen) > m.ttl {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	cp := *s
	return &cp, nil
}

// Save stores a copy of s
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

// Sweep drops every expired session and returns how many were removed
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RedisStore keeps sessions in Redis, refreshing the TTL on every save
type RedisStore struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisStore creates a RedisStore
func NewRedisStore(cache *redis.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

// Get loads a session
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.cache.Get(ctx, redis.SessionKey(id), &s)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Save stores a session
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if err := r.cache.Set(ctx, redis.SessionKey(s.ID), s, r.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// NewStore picks Redis when it is enabled, memory otherwise
func NewStore(client *redis.Client, ttl time.Duration) Store {
	if client != nil && client.Enabled() {
		return NewRedisStore(redis.NewCache(client, redis.KeyPrefix), ttl)
	}
	return NewMemoryStore(ttl)
}
