package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// Transfer-related errors.
var (
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
	ErrSelfTransfer  = errors.New("cannot transfer to self")
)

// TransferService handles user-to-user transfers.
type TransferService struct {
	accounts *AccountService
	userRepo *repository.UserRepository
}

// NewTransferService creates a new TransferService instance.
func NewTransferService(accounts *AccountService, userRepo *repository.UserRepository) *TransferService {
	return &TransferService{
		accounts: accounts,
		userRepo: userRepo,
	}
}

// ValidateTransfer checks the parts of a transfer that need no balance lock.
func ValidateTransfer(fromID, toID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}
	return nil
}

// Transfer moves amount from one user to another. The receiver must already
// have an account. If crediting the receiver fails the sender is refunded.
func (s *TransferService) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	if err := ValidateTransfer(fromID, toID, amount); err != nil {
		return err
	}

	ok, err := s.userRepo.Exists(ctx, toID)
	if err != nil {
		return fmt.Errorf("failed to look up receiver: %w", err)
	}
	if !ok {
		return repository.ErrUserNotFound
	}

	if err := s.accounts.Debit(ctx, fromID, amount, model.TxTypeTransfer); err != nil {
		return err
	}

	if err := s.accounts.Credit(ctx, toID, amount, model.TxTypeTransfer); err != nil {
		if rbErr := s.accounts.Credit(ctx, fromID, amount, model.TxTypeTransfer); rbErr != nil {
			log.Error().
				Err(rbErr).
				Int64("user_id", fromID).
				Str("amount", amount.String()).
				Msg("Failed to refund sender after failed transfer")
		}
		return fmt.Errorf("failed to credit receiver: %w", err)
	}

	log.Info().
		Int64("from_id", fromID).
		Int64("to_id", toID).
		Str("amount", amount.String()).
		Msg("Transfer completed")
	return nil
}
