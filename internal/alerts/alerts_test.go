package alerts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"above", Above, false},
		{" Below ", Below, false},
		{"sideways", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlert_Crossed(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		price float64
		want  bool
	}{
		{"above reached", Alert{TargetPrice: 100, Direction: Above}, 101, true},
		{"above equal", Alert{TargetPrice: 100, Direction: Above}, 100, true},
		{"above not yet", Alert{TargetPrice: 100, Direction: Above}, 99.99, false},
		{"below reached", Alert{TargetPrice: 50, Direction: Below}, 49, true},
		{"below equal", Alert{TargetPrice: 50, Direction: Below}, 50, true},
		{"below not yet", Alert{TargetPrice: 50, Direction: Below}, 50.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alert.Crossed(tt.price))
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := &Alert{SessionID: "s1", Symbol: "AAPL", TargetPrice: 200, Direction: Above}
	b := &Alert{SessionID: "s1", Symbol: "XYZ", TargetPrice: 40, Direction: Below}
	other := &Alert{SessionID: "s2", Symbol: "AAPL", TargetPrice: 150, Direction: Below}
	for _, x := range []*Alert{a, b, other} {
		require.NoError(t, store.Create(ctx, x))
	}
	assert.Equal(t, int64(1), a.ID)
	assert.True(t, a.Active)

	list, err := store.List(ctx, "s1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")

	fired, err := store.MarkTriggered(ctx, a.ID, 201, time.Now())
	require.NoError(t, err)
	assert.True(t, fired)

	again, err := store.MarkTriggered(ctx, a.ID, 202, time.Now())
	require.NoError(t, err)
	assert.False(t, again, "already triggered")

	n, err := store.CountActive(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, b.ID, pending[0].ID)

	assert.ErrorIs(t, store.Delete(ctx, "s2", b.ID), ErrNotFound, "other session's alert")
	require.NoError(t, store.Delete(ctx, "s1", b.ID))
	assert.ErrorIs(t, store.Delete(ctx, "s1", b.ID), ErrNotFound)
}

type fakePrices struct {
	prices map[string]float64
	err    error
	got    []string
}

func (f *fakePrices) BuildSymbols(_ context.Context, symbols []string) (*contracts.Universe, error) {
	f.got = symbols
	if f.err != nil {
		return nil, f.err
	}
	u := &contracts.Universe{Missing: map[string]string{}}
	for _, s := range symbols {
		p, ok := f.prices[s]
		if !ok {
			u.Missing[s] = "not found"
			continue
		}
		u.Records = append(u.Records, contracts.InstrumentRecord{Symbol: s, Price: contracts.Float(p)})
	}
	return u, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	triggers []Trigger
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, t Trigger) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers = append(n.triggers, t)
	return n.err
}

func TestChecker_Check(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, a := range []*Alert{
		{SessionID: "s1", Symbol: "AAPL", TargetPrice: 180, Direction: Above},
		{SessionID: "s1", Symbol: "AAPL", TargetPrice: 150, Direction: Below},
		{SessionID: "s2", Symbol: "XYZ", TargetPrice: 50, Direction: Below},
		{SessionID: "s2", Symbol: "GONE", TargetPrice: 10, Direction: Above},
	} {
		require.NoError(t, store.Create(ctx, a))
	}

	prices := &fakePrices{prices: map[string]float64{"AAPL": 190, "XYZ": 45}}
	notifier := &recordingNotifier{}
	checker := NewChecker(store, prices, notifier, logger.Nop())
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	res, err := checker.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Pending: 4, Symbols: 3, Unpriced: 1, Triggered: 2}, res)
	assert.Equal(t, []string{"AAPL", "XYZ", "GONE"}, prices.got)

	require.Len(t, notifier.triggers, 2)
	first := notifier.triggers[0]
	assert.Equal(t, "AAPL", first.Alert.Symbol)
	assert.Equal(t, 190.0, first.Price)
	assert.False(t, first.Alert.Active)
	assert.Equal(t, now, *first.Alert.TriggeredAt)
	assert.Equal(t, "s2", notifier.triggers[1].Alert.SessionID)

	// 두 번째 실행: 이미 발동된 알림은 다시 알리지 않음
	res, err = checker.Check(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Triggered)
	assert.Len(t, notifier.triggers, 2)
}

func TestChecker_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Alert{SessionID: "s1", Symbol: "AAPL", TargetPrice: 1, Direction: Above}))

	_, err := NewChecker(store, &fakePrices{err: errors.New("provider down")}, &recordingNotifier{}, logger.Nop()).Check(ctx)
	assert.Error(t, err)

	// 전송 실패는 발동을 되돌리지 않음
	notifier := &recordingNotifier{err: errors.New("redis down")}
	res, err := NewChecker(store, &fakePrices{prices: map[string]float64{"AAPL": 2}}, notifier, logger.Nop()).Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Triggered)
	n, _ := store.CountActive(ctx, "s1")
	assert.Zero(t, n)

	res, err = NewChecker(NewMemoryStore(), &fakePrices{}, notifier, logger.Nop()).Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, CheckResult{}, res)
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestMailer_Notify(t *testing.T) {
	sender := &fakeSender{}
	m := &Mailer{sender: sender, from: "alerts@example.com"}
	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	// 메일 주소 없는 알림은 건너뜀
	require.NoError(t, m.Notify(context.Background(), Trigger{Alert: Alert{Symbol: "AAPL"}}))
	assert.Empty(t, sender.sent)

	trigger := Trigger{
		Alert: Alert{Symbol: "XYZ", Direction: Below, TargetPrice: 50, Email: "me@example.com"},
		Price: 44.5,
		At:    at,
	}
	require.NoError(t, m.Notify(context.Background(), trigger))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"me@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"alerts@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Price alert: XYZ below $50.00"}, msg.GetHeader("Subject"))

	sender.err = errors.New("smtp down")
	assert.ErrorContains(t, m.Notify(context.Background(), trigger), "me@example.com")
}

func TestNotifiers_CallsAllAndJoinsErrors(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("bus down")}
	ok := &recordingNotifier{}

	err := Notifiers{failing, ok}.Notify(context.Background(), Trigger{Price: 1})
	assert.ErrorContains(t, err, "bus down")
	assert.Len(t, failing.triggers, 1)
	assert.Len(t, ok.triggers, 1, "later notifiers still run")

	assert.NoError(t, Notifiers{ok}.Notify(context.Background(), Trigger{}))
}

func TestBus_Disabled(t *testing.T) {
	bus := NewBus(redis.NewPubSub(redis.Disabled(), redis.KeyPrefix), logger.Nop())
	assert.False(t, bus.Enabled())
	assert.NoError(t, bus.Notify(context.Background(), Trigger{}))

	called := false
	require.NoError(t, bus.Listen(context.Background(), func(Trigger) { called = true }))
	assert.False(t, called)
}

func TestHub_DeliversToOwningSession(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("sid"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?sid=s1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients("s1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Deliver(Trigger{Alert: Alert{ID: 9, SessionID: "s2", Symbol: "AAPL"}, Price: 1})
	hub.Deliver(Trigger{Alert: Alert{ID: 7, SessionID: "s1", Symbol: "XYZ", Direction: Below}, Price: 44.5})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Trigger
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, int64(7), got.Alert.ID, "s2's alert is not delivered to s1")
	assert.Equal(t, 44.5, got.Price)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.Clients("s1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	hub := NewHub(logger.Nop())
	rec := httptest.NewRecorder()
	err := hub.Serve(rec, httptest.NewRequest(http.MethodGet, "/", nil), "s1")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, hub.Clients("s1"))
}

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	sid := uuid.NewString()
	a := &Alert{SessionID: sid, Symbol: "AAPL", TargetPrice: 200, Direction: Above}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	n, err := repo.CountActive(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fired, err := repo.MarkTriggered(ctx, a.ID, 201.5, time.Now())
	require.NoError(t, err)
	assert.True(t, fired)
	fired, err = repo.MarkTriggered(ctx, a.ID, 202, time.Now())
	require.NoError(t, err)
	assert.False(t, fired)

	active, err := repo.List(ctx, sid, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(ctx, sid, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].TriggeredPrice)
	assert.Equal(t, 201.5, *all[0].TriggeredPrice)

	require.NoError(t, repo.Delete(ctx, sid, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, sid, a.ID), ErrNotFound)
}
