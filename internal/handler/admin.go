package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/repository"
	"telegram-roulette-bot/internal/service"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	accountService *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService) *AdminHandler {
	return &AdminHandler{accountService: accountService}
}

// HandleAdminAdd handles the /admin_add command.
// Format: /admin_add <user_id> <amount>
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	return h.adjust(c, "admin_add", func(ctx context.Context, targetID int64, amount decimal.Decimal) error {
		return h.accountService.Credit(ctx, targetID, amount, model.TxTypeAdminAdd)
	})
}

// HandleAdminSub handles the /admin_sub command.
// Format: /admin_sub <user_id> <amount>
func (h *AdminHandler) HandleAdminSub(c tele.Context) error {
	return h.adjust(c, "admin_sub", func(ctx context.Context, targetID int64, amount decimal.Decimal) error {
		return h.accountService.Debit(ctx, targetID, amount, model.TxTypeAdminSub)
	})
}

// HandleAdminSet handles the /admin_set command.
// Format: /admin_set <user_id> <amount>
func (h *AdminHandler) HandleAdminSet(c tele.Context) error {
	return h.adjust(c, "admin_set", func(ctx context.Context, targetID int64, amount decimal.Decimal) error {
		_, err := h.accountService.SetBalance(ctx, targetID, amount, model.TxTypeAdminSet)
		return err
	})
}

func (h *AdminHandler) adjust(c tele.Context, op string, apply func(context.Context, int64, decimal.Decimal) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseAdminArgs(c.Args(), op)
	if err != nil {
		return c.Reply(err.Error())
	}
	if op != "admin_set" && amount.IsZero() {
		return c.Reply("❌ Amount must be greater than 0")
	}

	before, err := h.accountService.GetUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply("❌ User not found")
		}
		log.Error().Err(err).Int64("target_id", targetID).Msg("Failed to load admin target")
		return c.Reply("❌ Operation failed, please try again later")
	}

	if err := apply(ctx, targetID, amount); err != nil {
		if service.IsInsufficientFunds(err) {
			return c.Reply(fmt.Sprintf("❌ Balance is only %s", money.Format(before.Balance)))
		}
		log.Error().Err(err).Int64("target_id", targetID).Str("operation", op).Msg("Admin operation failed")
		return c.Reply("❌ Operation failed, please try again later")
	}

	after, err := h.accountService.Balance(ctx, targetID)
	if err != nil {
		after = before.Balance
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Str("amount", amount.String()).
		Str("old_balance", before.Balance.String()).
		Str("new_balance", after.String()).
		Str("operation", op).
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"📝 Before: %s\n"+
			"💰 Now: %s",
		userLabel(before), targetID, money.Format(before.Balance), money.Format(after),
	))
}

// parseAdminArgs parses "<user_id> <amount>".
func parseAdminArgs(args []string, op string) (int64, decimal.Decimal, error) {
	if len(args) < 2 {
		return 0, decimal.Zero, fmt.Errorf("❌ Usage: /%s <user_id> <amount>\nExample: /%s 123456789 100", op, op)
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("❌ User ID must be a number")
	}

	amount, err := money.Parse(args[1])
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("❌ Amount must be a non-negative number with at most %d decimals", money.MaxScale)
	}
	return targetID, amount, nil
}
