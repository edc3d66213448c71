package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Direction says which side of the target fires the alert
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// ErrNotFound is returned when an alert does not exist for the session
var ErrNotFound = errors.New("alert not found")

// ParseDirection validates a direction string
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Above, Below:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want above or below)", s)
	}
}

// Alert is one price alert owned by a session
type Alert struct {
	ID             int64      `json:"id"`
	SessionID      string     `json:"session_id"`
	Symbol         string     `json:"symbol"`
	TargetPrice    float64    `json:"target_price"`
	Direction      Direction  `json:"direction"`
	Email          string     `json:"email,omitempty"` // 발동 시 메일 수신자 (선택)
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	TriggeredAt    *time.Time `json:"triggered_at,omitempty"`
	TriggeredPrice *float64   `json:"triggered_price,omitempty"`
}

// Crossed reports whether price satisfies the alert condition.
// 목표가와 같으면 양방향 모두 발동
func (a Alert) Crossed(price float64) bool {
	if a.Direction == Above {
		return price >= a.TargetPrice
	}
	return price <= a.TargetPrice
}

// Trigger is published once when an alert fires
type Trigger struct {
	Alert Alert     `json:"alert"`
	Price float64   `json:"price"`
	At    time.Time `json:"at"`
}

// Notifiers fans a trigger out to every notifier, joining their errors
type Notifiers []Notifier

// Notify calls every notifier even when an earlier one fails
func (ns Notifiers) Notify(ctx context.Context, t Trigger) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Store persists alerts
// ⭐ SSOT: 가격 알림 저장소 인터페이스
type Store interface {
	Create(ctx context.Context, a *Alert) error
	List(ctx context.Context, sessionID string, activeOnly bool) ([]Alert, error)
	CountActive(ctx context.Context, sessionID string) (int, error)
	Delete(ctx context.Context, sessionID string, id int64) error
	Pending(ctx context.Context) ([]Alert, error)
	// MarkTriggered deactivates an active alert. false means it was
	// already triggered or deleted.
	MarkTriggered(ctx context.Context, id int64, price float64, at time.Time) (bool, error)
}
