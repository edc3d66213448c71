package history

import (
	"context"
	"time"

	"github.com/wonny/stockpilot/internal/contracts"
)

// Nop is used when no database is configured
type Nop struct{}

var _ Store = Nop{}

func (Nop) Record(context.Context, string, string, *contracts.ScreenResult) error { return nil }

func (Nop) ListRecent(context.Context, string, int) ([]Entry, error) { return []Entry{}, nil }

func (Nop) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
