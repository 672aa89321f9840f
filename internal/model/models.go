// Package model defines the data models for the Telegram roulette bot.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a Telegram user account in the economy.
type User struct {
	TelegramID     int64           `db:"telegram_id"`
	Username       string          `db:"username"`
	Balance        decimal.Decimal `db:"balance"`
	LastDailyClaim int64           `db:"last_daily_claim"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Type        string          `db:"type"`
	Description *string         `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Counter is a per-user integer counter: gathered items or game statistics.
type Counter struct {
	UserID    int64     `db:"user_id"`
	Key       string    `db:"counter_key"`
	Value     int64     `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DailyRank represents a user's daily game performance for ranking.
type DailyRank struct {
	UserID    int64           `db:"user_id"`
	Username  string          `db:"username"`
	NetProfit decimal.Decimal `db:"net_profit"`
}

// InitialBalance is granted to every new account.
var InitialBalance = decimal.NewFromInt(1000)

// Transaction types for categorizing balance changes.
const (
	TxTypeInitial         = "initial"          // Initial balance on account creation
	TxTypeDaily           = "daily"            // Daily reward claim
	TxTypeAdminAdd        = "admin_add"        // Admin added balance
	TxTypeAdminSub        = "admin_sub"        // Admin subtracted balance
	TxTypeAdminSet        = "admin_set"        // Admin set balance
	TxTypeTransfer        = "transfer"         // User to user transfer
	TxTypeGather          = "gather"           // Gather action reward
	TxTypeHarvest         = "harvest"          // Harvest action reward
	TxTypeRouletteBet     = "roulette_bet"     // Roulette buy-in
	TxTypeRouletteCashOut = "roulette_cashout" // Roulette voluntary cash-out
	TxTypeRouletteWin     = "roulette_win"     // Roulette last survivor payout
	TxTypeRouletteRefund  = "roulette_refund"  // Roulette stake returned on cancel
)

// Roulette statistic counter keys.
const (
	StatRouletteGames      = "roulette_games"
	StatRouletteSurvived   = "roulette_survived"
	StatRouletteEliminated = "roulette_eliminated"
	StatRouletteCashOuts   = "roulette_cashouts"
	StatRouletteWins       = "roulette_wins"
)

// GameTransactionTypes returns the transaction types that count towards daily game rankings.
// Daily rewards and admin adjustments are excluded.
func GameTransactionTypes() []string {
	return []string{
		TxTypeGather,
		TxTypeHarvest,
		TxTypeRouletteBet,
		TxTypeRouletteCashOut,
		TxTypeRouletteWin,
		TxTypeRouletteRefund,
	}
}
