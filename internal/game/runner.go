package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Errors returned by Runner.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrCooldown      = errors.New("action on cooldown")
)

// Crediter pays action rewards.
type Crediter interface {
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType string) error
}

// CounterRecorder records gathered items.
type CounterRecorder interface {
	Increment(ctx context.Context, userID int64, key string, delta int64) error
}

// Outcome is what a Run produced. On ErrCooldown only Remaining is set.
type Outcome struct {
	Action    Action
	Result    *Result
	Remaining time.Duration
}

type cooldownKey struct {
	command string
	userID  int64
}

// Runner performs registered actions, enforces per-user cooldowns and pays
// the rewards. Cooldowns live in memory and reset on restart.
type Runner struct {
	registry *Registry
	ledger   Crediter
	counters CounterRecorder
	clock    quartz.Clock

	mu       sync.Mutex
	lastRuns map[cooldownKey]time.Time
}

// NewRunner creates a runner. counters may be nil.
func NewRunner(registry *Registry, ledger Crediter, counters CounterRecorder, clock quartz.Clock) *Runner {
	return &Runner{
		registry: registry,
		ledger:   ledger,
		counters: counters,
		clock:    clock,
		lastRuns: make(map[cooldownKey]time.Time),
	}
}

// Remaining returns how long the user must wait before running command again.
func (r *Runner) Remaining(command string, userID int64) time.Duration {
	a, ok := r.registry.Get(command)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingLocked(a, userID, r.clock.Now())
}

func (r *Runner) remainingLocked(a Action, userID int64, now time.Time) time.Duration {
	last, ok := r.lastRuns[cooldownKey{a.Command(), userID}]
	if !ok {
		return 0
	}
	if remaining := last.Add(a.Cooldown()).Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// Run performs the action for the user and credits its reward.
func (r *Runner) Run(ctx context.Context, command string, userID int64) (*Outcome, error) {
	a, ok := r.registry.Get(command)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, command)
	}

	// Reserve the slot first so two concurrent runs cannot both pass the check.
	key := cooldownKey{a.Command(), userID}
	r.mu.Lock()
	now := r.clock.Now()
	if remaining := r.remainingLocked(a, userID, now); remaining > 0 {
		r.mu.Unlock()
		return &Outcome{Action: a, Remaining: remaining}, ErrCooldown
	}
	prev, hadPrev := r.lastRuns[key]
	r.lastRuns[key] = now
	r.mu.Unlock()

	res, err := r.perform(ctx, a, userID)
	if err != nil {
		r.mu.Lock()
		if hadPrev {
			r.lastRuns[key] = prev
		} else {
			delete(r.lastRuns, key)
		}
		r.mu.Unlock()
		return nil, err
	}

	log.Info().
		Str("action", a.Command()).
		Int64("user_id", userID).
		Str("reward", res.Reward.String()).
		Msg("Action performed")

	return &Outcome{Action: a, Result: res, Remaining: a.Cooldown()}, nil
}

func (r *Runner) perform(ctx context.Context, a Action, userID int64) (*Result, error) {
	res, err := a.Perform(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to perform %s: %w", a.Command(), err)
	}

	if res.Reward.IsPositive() {
		if err := r.ledger.Credit(ctx, userID, res.Reward, res.TxType); err != nil {
			return nil, fmt.Errorf("failed to credit %s reward: %w", a.Command(), err)
		}
	}

	if r.counters != nil {
		for item, n := range res.Items {
			if n == 0 {
				continue
			}
			if err := r.counters.Increment(ctx, userID, item, n); err != nil {
				log.Warn().Err(err).Int64("user_id", userID).Str("item", item).Msg("Failed to record gathered item")
			}
		}
	}
	return res, nil
}
