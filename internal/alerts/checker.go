package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// PriceSource fetches current snapshots for a symbol list
type PriceSource interface {
	BuildSymbols(ctx context.Context, symbols []string) (*contracts.Universe, error)
}

// Notifier delivers a fired alert
type Notifier interface {
	Notify(ctx context.Context, t Trigger) error
}

var (
	_ Notifier = Notifiers(nil)
	_ Notifier = (*Hub)(nil)
	_ Notifier = (*Bus)(nil)
	_ Notifier = (*Mailer)(nil)
)

// CheckResult summarizes one check pass
type CheckResult struct {
	Pending   int `json:"pending"`
	Symbols   int `json:"symbols"`
	Unpriced  int `json:"unpriced"`
	Triggered int `json:"triggered"`
}

// Checker compares pending alerts with current prices
type Checker struct {
	store    Store
	prices   PriceSource
	notifier Notifier
	now      func() time.Time
	logger   *logger.Logger
}

// NewChecker creates a new checker
func NewChecker(store Store, prices PriceSource, notifier Notifier, log *logger.Logger) *Checker {
	return &Checker{
		store:    store,
		prices:   prices,
		notifier: notifier,
		now:      time.Now,
		logger:   log.Component("alerts"),
	}
}

// Check fires every pending alert whose condition holds.
// 심볼당 한 번만 조회 (캐시된 provider 경유)
func (c *Checker) Check(ctx context.Context) (CheckResult, error) {
	pending, err := c.store.Pending(ctx)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load pending alerts: %w", err)
	}
	res := CheckResult{Pending: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, a := range pending {
		if !seen[a.Symbol] {
			seen[a.Symbol] = true
			symbols = append(symbols, a.Symbol)
		}
	}
	res.Symbols = len(symbols)

	u, err := c.prices.BuildSymbols(ctx, symbols)
	if err != nil {
		return res, fmt.Errorf("fetch alert prices: %w", err)
	}

	prices := make(map[string]float64, u.Len())
	for _, rec := range u.Records {
		if rec.Price != nil {
			prices[rec.Symbol] = *rec.Price
		}
	}

	for _, a := range pending {
		price, ok := prices[a.Symbol]
		if !ok {
			res.Unpriced++
			continue
		}
		if !a.Crossed(price) {
			continue
		}

		at := c.now()
		fired, err := c.store.MarkTriggered(ctx, a.ID, price, at)
		if err != nil {
			return res, err
		}
		if !fired {
			continue // 다른 워커가 이미 처리
		}
		res.Triggered++

		a.Active = false
		a.TriggeredAt = &at
		a.TriggeredPrice = &price
		if err := c.notifier.Notify(ctx, Trigger{Alert: a, Price: price, At: at}); err != nil {
			// 알림 전송 실패해도 발동 상태는 유지 (이력은 목록 API 로 조회 가능)
			c.logger.WithFields(map[string]interface{}{
				"alert_id": a.ID,
				"symbol":   a.Symbol,
			}).WithError(err).Warn("Failed to deliver alert")
		}
	}

	return res, nil
}
