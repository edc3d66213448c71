package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Feature names a capability gated by plan
type Feature string

const (
	FeatureAdvancedTechnical Feature = "advanced_technical" // Bollinger, MACD
	FeatureAdvancedSentiment Feature = "advanced_sentiment" // per-headline reasoning
	FeatureUnlimitedAlerts   Feature = "unlimited_alerts"
)

// ⭐ SSOT: 플랜별 기능 허용 테이블
var featurePlans = map[Feature][]Plan{
	FeatureAdvancedTechnical: {PlanBasic, PlanPro, PlanEnterprise},
	FeatureAdvancedSentiment: {PlanPro, PlanEnterprise},
	FeatureUnlimitedAlerts:   {PlanPro, PlanEnterprise},
}

var upgradeHints = map[Feature]string{
	FeatureAdvancedTechnical: "Upgrade to the Basic plan for advanced technical indicators",
	FeatureAdvancedSentiment: "Upgrade to the Pro plan for headline-level sentiment reasoning",
	FeatureUnlimitedAlerts:   "Upgrade to the Pro plan for unlimited price alerts",
}

// 플랜별 활성 가격 알림 한도 (0 = 무제한)
var alertLimits = map[Plan]int{
	PlanFree:  3,
	PlanBasic: 10,
}

// AlertLimit is the number of active price alerts the plan allows; 0 means unlimited
func (p Plan) AlertLimit() int {
	return alertLimits[p]
}

// ParsePlan validates a plan name
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return p, nil
	}
	return "", fmt.Errorf("unknown plan %q", s)
}

// Allows reports whether the plan includes feature
func (p Plan) Allows(f Feature) bool {
	for _, allowed := range featurePlans[f] {
		if allowed == p {
			return true
		}
	}
	return false
}

// UpgradeHint is the message shown when a feature is gated
func UpgradeHint(f Feature) string {
	return upgradeHints[f]
}

// Usage counts what a session has done
type Usage struct {
	Screens         int `json:"screens"`
	SentimentChecks int `json:"sentiment_checks"`
	IndicatorViews  int `json:"indicator_views"`
}

// Session is the per-client context carried through a request
// ⭐ SSOT: 전역 상태 대신 요청마다 명시적으로 전달
type Session struct {
	ID        string    `json:"id"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	Usage     Usage     `json:"usage"`
}

// New creates a free-plan session with a fresh id
func New(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Plan:      PlanFree,
		CreatedAt: now,
		LastSeen:  now,
	}
}

// Allows reports whether the session's plan includes feature
func (s *Session) Allows(f Feature) bool {
	return s.Plan.Allows(f)
}

// ValidID reports whether id looks like an id issued by New
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type contextKey struct{}

// WithSession stores s on ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
