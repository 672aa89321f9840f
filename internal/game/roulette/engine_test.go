package roulette

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SoloSurviveAndCashOut(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")

	rep := h.create(t, 10, 1, 1, "10", 1)
	requireDecimal(t, "90", h.ledger.get(1))

	require.True(t, rep.Has(EventStarted))
	require.True(t, rep.Has(EventSurvived))
	require.Equal(t, int64(1), rep.Session.Awaiting)
	p, _ := rep.Session.Player(1)
	requireDecimal(t, "16.9", p.Stake)

	rep, err := h.engine.CashOut(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
	require.NoError(t, err)
	require.True(t, rep.Resolved())
	requireDecimal(t, "106.9", h.ledger.get(1))
	assert.Zero(t, h.engine.Registry().Len())
}

func TestEngine_SoloContinueThenEliminated(t *testing.T) {
	h := newHarness(t, false, true)
	h.ledger.set(1, "100")

	rep := h.create(t, 10, 1, 2, "10", 1)
	rep, err := h.engine.Continue(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
	require.NoError(t, err)

	require.True(t, rep.Resolved())
	assert.Zero(t, rep.Outcome.WinnerID)
	// The grown stake is lost to the house.
	requireDecimal(t, "21.97", rep.Outcome.Forfeited)
	requireDecimal(t, "90", h.ledger.get(1))
	assert.Zero(t, h.ledger.creditCount())
}

func TestEngine_LastStandingCashOutTakesPot(t *testing.T) {
	h := newHarness(t, true)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")

	rep := h.create(t, 10, 1, 5, "10", 2)
	assert.Equal(t, PhaseLobby, rep.Session.Phase)

	rep = h.join(t, rep.Session.ID, 2)
	require.True(t, rep.Has(EventStarted))
	require.True(t, rep.Has(EventFired))
	require.True(t, rep.Has(EventLastStanding))
	requireDecimal(t, "10", rep.Session.Pot)
	assert.Equal(t, int64(2), rep.Session.Awaiting)
	requireDecimal(t, "90", h.ledger.get(1))

	rep, err := h.engine.CashOut(context.Background(), rep.Session.ID, 2, rep.Session.Turn)
	require.NoError(t, err)
	require.True(t, rep.Resolved())
	assert.Equal(t, int64(2), rep.Outcome.WinnerID)
	requireDecimal(t, "20", rep.Outcome.Payout)
	requireDecimal(t, "110", h.ledger.get(2))
	requireDecimal(t, "90", h.ledger.get(1))
}

func TestEngine_LastStandingKeepsPlaying(t *testing.T) {
	h := newHarness(t, true, false, true)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")

	rep := h.create(t, 10, 1, 3, "10", 2)
	rep = h.join(t, rep.Session.ID, 2)
	require.Equal(t, int64(2), rep.Session.Awaiting)

	// Survives once, then is asked again.
	rep, err := h.engine.Continue(context.Background(), rep.Session.ID, 2, rep.Session.Turn)
	require.NoError(t, err)
	require.True(t, rep.Has(EventSurvived))
	require.Equal(t, int64(2), rep.Session.Awaiting)

	rep, err = h.engine.Continue(context.Background(), rep.Session.ID, 2, rep.Session.Turn)
	require.NoError(t, err)
	require.True(t, rep.Resolved())
	assert.Zero(t, rep.Outcome.WinnerID)
	requireDecimal(t, "90", h.ledger.get(2))
}

func TestEngine_DoubleCashOutRejected(t *testing.T) {
	t.Run("solo game already resolved", func(t *testing.T) {
		h := newHarness(t, false)
		h.ledger.set(1, "100")
		rep := h.create(t, 10, 1, 1, "10", 1)

		_, err := h.engine.CashOut(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
		require.NoError(t, err)
		_, err = h.engine.CashOut(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
		assert.ErrorIs(t, err, ErrGameNotFound)
		requireDecimal(t, "106.9", h.ledger.get(1))
	})

	t.Run("game continues without the player", func(t *testing.T) {
		h := newHarness(t, false)
		for id := int64(1); id <= 3; id++ {
			h.ledger.set(id, "100")
		}
		rep := h.create(t, 10, 1, 1, "10", 3)
		h.join(t, rep.Session.ID, 2)
		rep = h.join(t, rep.Session.ID, 3)
		require.Equal(t, int64(1), rep.Session.Awaiting)
		turn := rep.Session.Turn

		rep, err := h.engine.CashOut(context.Background(), rep.Session.ID, 1, turn)
		require.NoError(t, err)
		require.False(t, rep.Resolved())

		_, err = h.engine.CashOut(context.Background(), rep.Session.ID, 1, turn)
		assert.ErrorIs(t, err, ErrNotYourTurn)
		assert.Equal(t, 1, h.ledger.creditCount())
	})
}

func TestEngine_DecisionGuards(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")

	rep := h.create(t, 10, 1, 1, "10", 2)
	_, err := h.engine.Continue(context.Background(), rep.Session.ID, 1, 1)
	assert.ErrorIs(t, err, ErrNotYourTurn, "no decision in the lobby")

	rep = h.join(t, rep.Session.ID, 2)
	require.Equal(t, int64(1), rep.Session.Awaiting)
	id, turn := rep.Session.ID, rep.Session.Turn

	_, err = h.engine.Continue(context.Background(), id, 2, turn)
	assert.ErrorIs(t, err, ErrNotYourTurn, "wrong player")

	_, err = h.engine.CashOut(context.Background(), id, 1, turn+1)
	assert.ErrorIs(t, err, ErrNotYourTurn, "stale or future prompt")

	rep, err = h.engine.Continue(context.Background(), id, 1, turn)
	require.NoError(t, err)
	require.Equal(t, int64(2), rep.Session.Awaiting)

	_, err = h.engine.Continue(context.Background(), id, 1, turn)
	assert.ErrorIs(t, err, ErrNotYourTurn, "prompt already answered")

	_, err = h.engine.Continue(context.Background(), "missing", 1, turn)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestEngine_CreateRejections(t *testing.T) {
	h := newHarness(t)
	h.ledger.set(1, "100")
	h.ledger.set(2, "5")

	bad := []CreateRequest{
		{ChannelID: 1, HostID: 1, Bullets: 0, Bet: decimal.NewFromInt(1), MaxPlayers: 2},
		{ChannelID: 1, HostID: 1, Bullets: 6, Bet: decimal.NewFromInt(1), MaxPlayers: 2},
		{ChannelID: 1, HostID: 1, Bullets: 1, Bet: decimal.NewFromInt(-1), MaxPlayers: 2},
		{ChannelID: 1, HostID: 1, Bullets: 1, Bet: decimal.NewFromInt(1), MaxPlayers: 7},
		{ChannelID: 1, HostID: 0, Bullets: 1, Bet: decimal.NewFromInt(1), MaxPlayers: 2},
	}
	for _, req := range bad {
		_, err := h.engine.CreateGame(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidParameters, "%+v", req)
	}

	_, err := h.engine.CreateGame(context.Background(), CreateRequest{ChannelID: 1, HostID: 2, Bullets: 1, Bet: decimal.NewFromInt(10), MaxPlayers: 2})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	requireDecimal(t, "5", h.ledger.get(2))
	assert.Zero(t, h.engine.Registry().Len(), "failed debit must not leave the game registered")

	h.create(t, 1, 1, 1, "10", 3)

	_, err = h.engine.CreateGame(context.Background(), CreateRequest{ChannelID: 1, HostID: 3, Bullets: 1, Bet: decimal.Zero, MaxPlayers: 2})
	assert.ErrorIs(t, err, ErrChannelBusy)

	_, err = h.engine.CreateGame(context.Background(), CreateRequest{ChannelID: 2, HostID: 1, Bullets: 1, Bet: decimal.Zero, MaxPlayers: 2})
	assert.ErrorIs(t, err, ErrPlayerAlreadyInGame)
}

func TestEngine_MaxBet(t *testing.T) {
	h := newHarness(t)
	h.engine.cfg.MaxBet = decimal.NewFromInt(50)
	h.ledger.set(1, "1000")

	_, err := h.engine.CreateGame(context.Background(), CreateRequest{ChannelID: 1, HostID: 1, Bullets: 1, Bet: decimal.NewFromInt(51), MaxPlayers: 2})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestEngine_JoinRejections(t *testing.T) {
	h := newHarness(t)
	for id := int64(1); id <= 5; id++ {
		h.ledger.set(id, "100")
	}
	h.ledger.set(9, "1")

	lobby := h.create(t, 1, 1, 1, "10", 3).Session.ID
	other := h.create(t, 2, 4, 1, "10", 3).Session.ID

	_, err := h.engine.Join(context.Background(), lobby, 1, "p1")
	assert.ErrorIs(t, err, ErrDuplicateJoin)

	_, err = h.engine.Join(context.Background(), lobby, 4, "p4")
	assert.ErrorIs(t, err, ErrPlayerAlreadyInGame)
	requireDecimal(t, "90", h.ledger.get(4))

	_, err = h.engine.Join(context.Background(), lobby, 9, "p9")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	_, inGame := h.engine.Registry().ByPlayer(9)
	assert.False(t, inGame, "failed debit must release the claim")

	_, err = h.engine.Join(context.Background(), "nope", 2, "p2")
	assert.ErrorIs(t, err, ErrGameNotFound)

	h.join(t, lobby, 2)
	_, err = h.engine.Join(context.Background(), lobby, 2, "p2")
	assert.ErrorIs(t, err, ErrDuplicateJoin)

	_, err = h.engine.Start(context.Background(), other, 1)
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = h.engine.Start(context.Background(), lobby, 1)
	require.NoError(t, err)
	_, err = h.engine.Join(context.Background(), lobby, 3, "p3")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
	_, err = h.engine.Start(context.Background(), lobby, 1)
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
	requireDecimal(t, "100", h.ledger.get(3))
}

func TestEngine_FullLobbyRejectsJoin(t *testing.T) {
	h := newHarness(t)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	s := newSession("full", 5, 1, "p1", 1, decimal.NewFromInt(10), 2, h.clock.Now())
	s.AddPlayer(2, "p2")
	require.NoError(t, h.engine.Registry().Register(s))

	_, err := h.engine.Join(context.Background(), "full", 3, "p3")
	assert.ErrorIs(t, err, ErrGameFull)
	requireDecimal(t, "100", h.ledger.get(3))
}

func TestEngine_EliminationChainIsAutomatic(t *testing.T) {
	// A and B die back to back; C survives and is asked to decide.
	h := newHarness(t, true, true, false)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	rep := h.create(t, 1, 1, 3, "10", 3)
	h.join(t, rep.Session.ID, 2)
	rep = h.join(t, rep.Session.ID, 3)

	fired := 0
	for _, ev := range rep.Events {
		if ev.Kind == EventFired {
			fired++
		}
	}
	assert.Equal(t, 2, fired)
	assert.Equal(t, int64(3), rep.Session.Awaiting)
	assert.True(t, rep.Session.LastStanding)
	assert.False(t, rep.Has(EventSurvived), "last player standing decides before shooting")
	requireDecimal(t, "20", rep.Session.Pot)
	assert.Equal(t, 1, rep.Session.BulletsRemaining)
	assert.Equal(t, []int{3, 2}, h.sampler.calls)
}

func TestEngine_ReloadWhenChamberEmpties(t *testing.T) {
	// One bullet: A dies, leaving the cylinder empty; B's next shot cannot
	// fire and reloads it.
	h := newHarness(t, true)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	rep := h.create(t, 1, 1, 1, "10", 3)
	h.join(t, rep.Session.ID, 2)
	rep = h.join(t, rep.Session.ID, 3)

	require.True(t, rep.Has(EventReloaded))
	assert.Equal(t, 1, rep.Session.Round)
	assert.Equal(t, 1, rep.Session.BulletsRemaining)
	assert.Equal(t, int64(2), rep.Session.Awaiting)
	assert.Equal(t, int64(3), rep.Session.Current)
}

func TestEngine_CashOutLeavingOnePaysWinner(t *testing.T) {
	h := newHarness(t, true)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	rep := h.create(t, 1, 1, 1, "10", 3)
	h.join(t, rep.Session.ID, 2)
	rep = h.join(t, rep.Session.ID, 3)
	require.Equal(t, int64(2), rep.Session.Awaiting)

	rep, err := h.engine.CashOut(context.Background(), rep.Session.ID, 2, rep.Session.Turn)
	require.NoError(t, err)
	require.True(t, rep.Resolved())
	assert.Equal(t, int64(3), rep.Outcome.WinnerID)

	// B leaves with 10 * 1.3^2; C collects A's 10 plus their own 10.
	requireDecimal(t, "106.9", h.ledger.get(2))
	requireDecimal(t, "110", h.ledger.get(3))
	requireDecimal(t, "90", h.ledger.get(1))
}

func TestEngine_PayoutFailureRollsBack(t *testing.T) {
	h := newHarness(t, true)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	rep := h.create(t, 1, 1, 1, "10", 3)
	h.join(t, rep.Session.ID, 2)
	rep = h.join(t, rep.Session.ID, 3)
	turn := rep.Session.Turn

	h.ledger.failCreditsFor(3, true)
	_, err := h.engine.CashOut(context.Background(), rep.Session.ID, 2, turn)
	require.ErrorIs(t, err, errLedgerDown)
	assert.False(t, IsRejection(err))

	requireDecimal(t, "90", h.ledger.get(2))
	view, ok := h.engine.ChannelView(1)
	require.True(t, ok)
	assert.Equal(t, int64(2), view.Awaiting)
	assert.Equal(t, 2, view.AliveCount())

	h.ledger.failCreditsFor(3, false)
	rep, err = h.engine.CashOut(context.Background(), rep.Session.ID, 2, turn)
	require.NoError(t, err)
	assert.True(t, rep.Resolved())
}

func TestEngine_ConcurrentDecisionsOnlyOneWins(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	rep := h.create(t, 1, 1, 1, "10", 1)
	id, turn := rep.Session.ID, rep.Session.Turn

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		start     = make(chan struct{})
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			var err error
			if i%2 == 0 {
				_, err = h.engine.CashOut(context.Background(), id, 1, turn)
			} else {
				_, err = h.engine.Continue(context.Background(), id, 1, turn)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, IsRejection(err), "unexpected error %v", err)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.LessOrEqual(t, h.ledger.creditCount(), 1)
}

func TestEngine_LobbyTimeoutStartsGame(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")

	rep := h.create(t, 1, 1, 1, "10", 4)
	h.join(t, rep.Session.ID, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.clock.Advance(time.Minute).MustWait(ctx)

	last := h.notifier.last()
	require.NotNil(t, last)
	assert.True(t, last.Has(EventTimedOut))
	assert.True(t, last.Has(EventStarted))
	assert.Equal(t, PhaseInProgress, last.Session.Phase)
	assert.Equal(t, int64(1), last.Session.Awaiting)
}

func TestEngine_HostOnlyLobbyPlaysSolo(t *testing.T) {
	begin := map[string]func(t *testing.T, h *harness, sessionID string) *Report{
		"timeout": func(t *testing.T, h *harness, _ string) *Report {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			h.clock.Advance(time.Minute).MustWait(ctx)
			last := h.notifier.last()
			require.NotNil(t, last)
			assert.True(t, last.Has(EventTimedOut))
			return last
		},
		"start": func(t *testing.T, h *harness, sessionID string) *Report {
			rep, err := h.engine.Start(context.Background(), sessionID, 1)
			require.NoError(t, err)
			return rep
		},
	}

	for name, fn := range begin {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, false)
			stats := &countingStats{counts: make(map[string]int64)}
			h.engine.stats = stats
			h.ledger.set(1, "100")

			rep := h.create(t, 1, 1, 1, "10", 4)
			require.Equal(t, PhaseLobby, rep.Session.Phase)

			rep = fn(t, h, rep.Session.ID)
			require.True(t, rep.Has(EventStarted))
			require.True(t, rep.Has(EventSurvived), "the host still has to pull the trigger")
			assert.False(t, rep.Has(EventLastStanding))
			assert.False(t, rep.Resolved())
			assert.Equal(t, []int{1}, h.sampler.calls)
			require.Equal(t, int64(1), rep.Session.Awaiting)
			p, _ := rep.Session.Player(1)
			requireDecimal(t, "16.9", p.Stake)

			rep, err := h.engine.CashOut(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
			require.NoError(t, err)
			require.True(t, rep.Resolved())
			assert.Zero(t, rep.Outcome.WinnerID)
			requireDecimal(t, "106.9", h.ledger.get(1))
			require.Len(t, h.ledger.credits, 1)
			assert.Equal(t, "roulette_cashout", h.ledger.credits[0].txType)
			assert.Zero(t, stats.counts["roulette_wins"])
		})
	}
}

func TestEngine_StartStopsLobbyTimer(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")

	rep := h.create(t, 1, 1, 1, "10", 4)
	h.join(t, rep.Session.ID, 2)
	_, err := h.engine.Start(context.Background(), rep.Session.ID, 1)
	require.NoError(t, err)
	reports := h.notifier.count()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// The only pending event is now the decision timer.
	d, w := h.clock.AdvanceNext()
	w.MustWait(ctx)
	assert.Equal(t, testTimeout, d)

	last := h.notifier.last()
	assert.Equal(t, reports+1, h.notifier.count())
	assert.False(t, last.Has(EventStarted))
	assert.True(t, last.Has(EventCashedOut))
}

func TestEngine_TurnTimeoutCashesOut(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	h.create(t, 1, 1, 1, "10", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.clock.Advance(testTimeout).MustWait(ctx)

	last := h.notifier.last()
	require.NotNil(t, last)
	assert.True(t, last.Has(EventTimedOut))
	assert.True(t, last.Resolved())
	requireDecimal(t, "106.9", h.ledger.get(1))
	assert.Zero(t, h.engine.Registry().Len())
}

func TestEngine_TurnTimeoutRetriesFailedCashOut(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.set(1, "100")
	rep := h.create(t, 1, 1, 1, "10", 1)
	reports := h.notifier.count()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.ledger.failCreditsFor(1, true)
	h.clock.Advance(testTimeout).MustWait(ctx)

	assert.Equal(t, reports, h.notifier.count())
	assert.Equal(t, 1, h.engine.Registry().Len())
	requireDecimal(t, "90", h.ledger.get(1))
	view, ok := h.engine.ChannelView(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), view.Awaiting)
	assert.Equal(t, rep.Session.Turn, view.Turn)

	h.ledger.failCreditsFor(1, false)
	h.clock.Advance(testTimeout).MustWait(ctx)

	last := h.notifier.last()
	require.Equal(t, reports+1, h.notifier.count())
	assert.True(t, last.Has(EventTimedOut))
	assert.True(t, last.Resolved())
	requireDecimal(t, "106.9", h.ledger.get(1))
	assert.Equal(t, 1, h.ledger.creditCount())
	assert.Zero(t, h.engine.Registry().Len())
}

func TestEngine_AnsweredPromptTimerIsInert(t *testing.T) {
	h := newHarness(t, false, false)
	h.ledger.set(1, "100")
	rep := h.create(t, 1, 1, 1, "10", 1)

	rep, err := h.engine.Continue(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
	require.NoError(t, err)
	turn := rep.Session.Turn

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.clock.Advance(testTimeout).MustWait(ctx)

	// Only the second prompt's timer fired.
	last := h.notifier.last()
	require.True(t, last.Resolved())
	p, _ := last.Session.Player(1)
	requireDecimal(t, "21.97", p.Stake)
	assert.Equal(t, turn, last.Session.Turn)
	assert.Equal(t, 1, h.ledger.creditCount())
}

func TestEngine_CancelRefundsLobby(t *testing.T) {
	h := newHarness(t)
	h.ledger.set(1, "100")
	h.ledger.set(2, "100")
	rep := h.create(t, 7, 1, 1, "10", 3)
	h.join(t, rep.Session.ID, 2)

	_, err := h.engine.Cancel(context.Background(), 7, 2)
	assert.ErrorIs(t, err, ErrNotHost)

	rep, err = h.engine.Cancel(context.Background(), 7, 1)
	require.NoError(t, err)
	require.True(t, rep.Resolved())
	assert.True(t, rep.Outcome.Abandoned)
	requireDecimal(t, "100", h.ledger.get(1))
	requireDecimal(t, "100", h.ledger.get(2))

	_, err = h.engine.Cancel(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = h.engine.Join(context.Background(), rep.Session.ID, 3, "p3")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestEngine_AbandonInProgress(t *testing.T) {
	h := newHarness(t, true)
	for id := int64(1); id <= 3; id++ {
		h.ledger.set(id, "100")
	}
	rep := h.create(t, 1, 1, 1, "10", 3)
	h.join(t, rep.Session.ID, 2)
	h.join(t, rep.Session.ID, 3)

	_, err := h.engine.Cancel(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)

	rep, err = h.engine.Abandon(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rep.Outcome.Abandoned)
	requireDecimal(t, "10", rep.Outcome.Forfeited)

	requireDecimal(t, "90", h.ledger.get(1))
	requireDecimal(t, "106.9", h.ledger.get(2))
	requireDecimal(t, "100", h.ledger.get(3))
	assert.Zero(t, h.engine.Registry().Len())
}

func TestEngine_StatsRecorded(t *testing.T) {
	h := newHarness(t, false)
	stats := &countingStats{counts: make(map[string]int64)}
	h.engine.stats = stats
	h.ledger.set(1, "100")

	rep := h.create(t, 1, 1, 1, "10", 1)
	_, err := h.engine.CashOut(context.Background(), rep.Session.ID, 1, rep.Session.Turn)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.counts["roulette_games"])
	assert.Equal(t, int64(1), stats.counts["roulette_survived"])
	assert.Equal(t, int64(1), stats.counts["roulette_cashouts"])
}

type countingStats struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (s *countingStats) Increment(_ context.Context, _ int64, key string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] += delta
	return nil
}
