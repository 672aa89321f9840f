// Package game defines the timed economy actions and their registry.
// Adding a new action only requires implementing the Action interface.
package game

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one performed action.
type Result struct {
	Reward      decimal.Decimal  // Coins credited to the user
	TxType      string           // Transaction type the reward is recorded under
	Items       map[string]int64 // Counter key -> amount gathered
	Description string           // Human-readable result description
}

// Action is a command users run on a cooldown to earn coins.
type Action interface {
	// Name returns the action's display name (e.g., "Gather")
	Name() string

	// Command returns the command that triggers this action (e.g., "gather")
	Command() string

	// Description returns a brief description of the action
	Description() string

	// Cooldown returns the wait between two runs by the same user.
	Cooldown() time.Duration

	// Perform rolls the outcome for a user. It must not touch balances;
	// the Runner credits the reward.
	Perform(ctx context.Context, userID int64) (*Result, error)
}
