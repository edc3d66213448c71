package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/stockpilot/pkg/logger"
)

// Manager resolves, creates and updates sessions
type Manager struct {
	store  Store
	now    func() time.Time
	logger *logger.Logger
}

// NewManager creates a new session manager
func NewManager(store Store, log *logger.Logger) *Manager {
	return &Manager{
		store:  store,
		now:    time.Now,
		logger: log.Component("session"),
	}
}

// Resolve loads the session for id, or starts a new one when id is
// empty, malformed, unknown or expired. LastSeen is refreshed.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	now := m.now()

	if id != "" && ValidID(id) {
		s, err := m.store.Get(ctx, id)
		switch {
		case err == nil:
			s.LastSeen = now
			if err := m.store.Save(ctx, s); err != nil {
				return nil, err
			}
			return s, nil
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("resolve session: %w", err)
		}
	}

	s := New(now)
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.WithField("session_id", s.ID).Debug("Session created")
	return s, nil
}

// SetPlan changes the plan tier of a session
func (m *Manager) SetPlan(ctx context.Context, s *Session, plan Plan) error {
	old := s.Plan
	s.Plan = plan
	if err := m.store.Save(ctx, s); err != nil {
		s.Plan = old
		return err
	}

	m.logger.WithFields(map[string]interface{}{
		"session_id": s.ID,
		"from":       old,
		"to":         plan,
	}).Info("Plan changed")
	return nil
}

// Track applies fn to the session's usage counters and saves it.
// A failed save is logged; usage counting never fails a request.
func (m *Manager) Track(ctx context.Context, s *Session, fn func(u *Usage)) {
	fn(&s.Usage)
	if err := m.store.Save(ctx, s); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Failed to save session usage")
	}
}
