// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/lock"
	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/repository"
)

// Common errors for account operations.
var (
	ErrDailyAlreadyClaimed = errors.New("daily reward already claimed")
	ErrNegativeAmount      = errors.New("amount must not be negative")
)

// balanceLockTimeout bounds how long a balance mutation waits behind another one
// for the same user.
const balanceLockTimeout = 5 * time.Second

// AccountService owns every balance mutation. Mutations for one user are
// serialized by a per-user lock and each one is recorded as a transaction.
type AccountService struct {
	userRepo      *repository.UserRepository
	txRepo        *repository.TransactionRepository
	userLock      *lock.UserLock
	clock         quartz.Clock
	dailyReward   decimal.Decimal
	dailyCooldown time.Duration
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	userLock *lock.UserLock,
	clock quartz.Clock,
	dailyReward decimal.Decimal,
	cooldownHours int,
) *AccountService {
	return &AccountService{
		userRepo:      userRepo,
		txRepo:        txRepo,
		userLock:      userLock,
		clock:         clock,
		dailyReward:   dailyReward,
		dailyCooldown: time.Duration(cooldownHours) * time.Hour,
	}
}

// EnsureUser returns the user's account, creating it with the initial balance
// on first contact. The boolean reports whether it was created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if created {
		desc := "initial balance"
		s.record(ctx, telegramID, model.InitialBalance, model.TxTypeInitial, &desc)
		return user, true, nil
	}

	if username != "" && user.Username != username {
		if err := s.userRepo.UpdateUsername(ctx, telegramID, username); err != nil {
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to update username")
		}
		user.Username = username
	}

	return user, false, nil
}

// GetUser retrieves a user by their Telegram ID.
func (s *AccountService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, telegramID)
}

// Balance returns the user's current balance.
func (s *AccountService) Balance(ctx context.Context, telegramID int64) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByID(ctx, telegramID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.Balance, nil
}

// Debit removes amount from the user's balance. It fails with
// money.ErrInsufficientFunds and leaves the balance untouched when the
// balance does not cover the amount.
func (s *AccountService) Debit(ctx context.Context, telegramID int64, amount decimal.Decimal, txType string) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return s.userLock.WithLockContext(ctx, telegramID, balanceLockTimeout, func() error {
		if _, err := s.userRepo.Debit(ctx, telegramID, amount); err != nil {
			return err
		}
		s.record(ctx, telegramID, amount.Neg(), txType, nil)
		return nil
	})
}

// Credit adds amount to the user's balance.
func (s *AccountService) Credit(ctx context.Context, telegramID int64, amount decimal.Decimal, txType string) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return s.userLock.WithLockContext(ctx, telegramID, balanceLockTimeout, func() error {
		if _, err := s.userRepo.Credit(ctx, telegramID, amount); err != nil {
			return err
		}
		s.record(ctx, telegramID, amount, txType, nil)
		return nil
	})
}

// SetBalance overwrites the user's balance and records the difference.
func (s *AccountService) SetBalance(ctx context.Context, telegramID int64, balance decimal.Decimal, txType string) (*model.User, error) {
	if balance.IsNegative() {
		return nil, ErrNegativeAmount
	}

	var user *model.User
	err := s.userLock.WithLockContext(ctx, telegramID, balanceLockTimeout, func() error {
		before, err := s.userRepo.GetByID(ctx, telegramID)
		if err != nil {
			return err
		}
		user, err = s.userRepo.SetBalance(ctx, telegramID, balance)
		if err != nil {
			return err
		}
		s.record(ctx, telegramID, balance.Sub(before.Balance), txType, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// record writes a transaction row. The balance change has already been applied,
// so a failure here is logged rather than returned.
func (s *AccountService) record(ctx context.Context, telegramID int64, amount decimal.Decimal, txType string, description *string) {
	if amount.IsZero() || txType == "" {
		return
	}
	if _, err := s.txRepo.Create(ctx, telegramID, amount, txType, description); err != nil {
		log.Error().Err(err).
			Int64("user_id", telegramID).
			Str("type", txType).
			Str("amount", amount.String()).
			Msg("Failed to record transaction")
	}
}

// DailyClaim is the outcome of a daily reward attempt.
type DailyClaim struct {
	Reward    decimal.Decimal
	Balance   decimal.Decimal
	Remaining time.Duration
}

// ClaimDaily grants the daily reward if the cooldown has elapsed. When it has
// not, the returned error is ErrDailyAlreadyClaimed and Remaining is set.
func (s *AccountService) ClaimDaily(ctx context.Context, telegramID int64) (*DailyClaim, error) {
	var claim DailyClaim
	err := s.userLock.WithLockContext(ctx, telegramID, balanceLockTimeout, func() error {
		user, err := s.userRepo.GetByID(ctx, telegramID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if remaining := repository.NextDailyClaim(user, s.dailyCooldown, now); remaining > 0 {
			claim.Remaining = remaining
			claim.Balance = user.Balance
			return ErrDailyAlreadyClaimed
		}

		if _, err := s.userRepo.UpdateDailyClaim(ctx, telegramID, now.Unix()); err != nil {
			return fmt.Errorf("failed to update daily claim time: %w", err)
		}
		user, err = s.userRepo.Credit(ctx, telegramID, s.dailyReward)
		if err != nil {
			return fmt.Errorf("failed to add daily reward: %w", err)
		}

		desc := "daily reward"
		s.record(ctx, telegramID, s.dailyReward, model.TxTypeDaily, &desc)
		claim.Reward = s.dailyReward
		claim.Balance = user.Balance
		return nil
	})
	if err != nil && !errors.Is(err, ErrDailyAlreadyClaimed) {
		return nil, err
	}
	return &claim, err
}

// FormatRemaining renders a cooldown as "Hh Mm Ss".
func FormatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// IsInsufficientFunds reports whether err is a failed balance guard.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, money.ErrInsufficientFunds)
}
