package roulette

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"telegram-roulette-bot/internal/pkg/money"
)

var errLedgerDown = errors.New("ledger unavailable")

type ledgerEntry struct {
	userID int64
	amount decimal.Decimal
	txType string
}

// fakeLedger is an in-memory Ledger with injectable credit failures.
type fakeLedger struct {
	mu         sync.Mutex
	balances   map[int64]decimal.Decimal
	failCredit map[int64]bool
	credits    []ledgerEntry
	debits     []ledgerEntry
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[int64]decimal.Decimal),
		failCredit: make(map[int64]bool),
	}
}

func (l *fakeLedger) set(userID int64, amount string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = decimal.RequireFromString(amount)
}

func (l *fakeLedger) failCreditsFor(userID int64, fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failCredit[userID] = fail
}

func (l *fakeLedger) get(userID int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *fakeLedger) creditCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.credits)
}

func (l *fakeLedger) Balance(_ context.Context, userID int64) (decimal.Decimal, error) {
	return l.get(userID), nil
}

func (l *fakeLedger) Debit(_ context.Context, userID int64, amount decimal.Decimal, txType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID].LessThan(amount) {
		return money.ErrInsufficientFunds
	}
	l.balances[userID] = l.balances[userID].Sub(amount)
	l.debits = append(l.debits, ledgerEntry{userID, amount, txType})
	return nil
}

func (l *fakeLedger) Credit(_ context.Context, userID int64, amount decimal.Decimal, txType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit[userID] {
		return errLedgerDown
	}
	l.balances[userID] = l.balances[userID].Add(amount)
	l.credits = append(l.credits, ledgerEntry{userID, amount, txType})
	return nil
}

// scriptedSampler returns the scripted shots in order, then never fires.
type scriptedSampler struct {
	mu    sync.Mutex
	shots []bool
	calls []int
}

func (s *scriptedSampler) Fire(bullets, _ int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, bullets)
	if len(s.shots) == 0 {
		return false
	}
	shot := s.shots[0]
	s.shots = s.shots[1:]
	return shot
}

func (s *scriptedSampler) push(shots ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots = append(s.shots, shots...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []*Report
}

func (n *recordingNotifier) Notify(_ context.Context, r *Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, r)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reports)
}

func (n *recordingNotifier) last() *Report {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.reports) == 0 {
		return nil
	}
	return n.reports[len(n.reports)-1]
}

type harness struct {
	engine   *Engine
	ledger   *fakeLedger
	sampler  *scriptedSampler
	clock    *quartz.Mock
	notifier *recordingNotifier
}

const testTimeout = 30 * time.Second

func newHarness(t *testing.T, shots ...bool) *harness {
	t.Helper()
	h := &harness{
		ledger:   newFakeLedger(),
		sampler:  &scriptedSampler{shots: shots},
		clock:    quartz.NewMock(t),
		notifier: &recordingNotifier{},
	}
	seq := 0
	h.engine = NewEngine(h.ledger, Config{
		LobbyTimeout: time.Minute,
		TurnTimeout:  testTimeout,
	},
		WithSampler(h.sampler),
		WithClock(h.clock),
		WithNotifier(h.notifier),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("game%d", seq)
		}),
	)
	return h
}

func (h *harness) create(t *testing.T, channel, host int64, bullets int, bet string, maxPlayers int) *Report {
	t.Helper()
	rep, err := h.engine.CreateGame(context.Background(), CreateRequest{
		ChannelID:  channel,
		HostID:     host,
		HostName:   fmt.Sprintf("p%d", host),
		Bullets:    bullets,
		Bet:        decimal.RequireFromString(bet),
		MaxPlayers: maxPlayers,
	})
	require.NoError(t, err)
	return rep
}

func (h *harness) join(t *testing.T, sessionID string, player int64) *Report {
	t.Helper()
	rep, err := h.engine.Join(context.Background(), sessionID, player, fmt.Sprintf("p%d", player))
	require.NoError(t, err)
	return rep
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
