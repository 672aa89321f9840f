package roulette

import (
	"errors"

	"telegram-roulette-bot/internal/pkg/money"
)

// Rejections. Every one of them is a user-facing answer to an invalid request;
// none leaves a session in a partially updated state.
var (
	ErrGameNotFound        = errors.New("game not found")
	ErrChannelBusy         = errors.New("a game is already running in this chat")
	ErrPlayerAlreadyInGame = errors.New("player is already in a game")
	ErrGameFull            = errors.New("game is full")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrDuplicateJoin       = errors.New("player already joined this game")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrNotHost             = errors.New("only the host can do that")
	ErrInsufficientBalance = money.ErrInsufficientFunds
	ErrInvalidParameters   = errors.New("invalid game parameters")
)

var rejections = []error{
	ErrGameNotFound,
	ErrChannelBusy,
	ErrPlayerAlreadyInGame,
	ErrGameFull,
	ErrGameAlreadyStarted,
	ErrDuplicateJoin,
	ErrNotYourTurn,
	ErrNotHost,
	ErrInsufficientBalance,
	ErrInvalidParameters,
}

// IsRejection reports whether err is an expected rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
