package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/repository"
	"telegram-roulette-bot/internal/service"
)

const payUsage = "❌ Usage: reply to someone's message with /pay <amount>\nExample: /pay 100"

// TransferHandler handles transfer-related commands.
type TransferHandler struct {
	accountService  *service.AccountService
	transferService *service.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(accountService *service.AccountService, transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{
		accountService:  accountService,
		transferService: transferService,
	}
}

// HandlePay handles the /pay command. The receiver is the author of the
// replied-to message or a user mentioned by a text mention.
func (h *TransferHandler) HandlePay(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target := payTarget(c.Message())
	if target == nil {
		return c.Reply(payUsage)
	}
	amount, err := parsePayAmount(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}
	if err := service.ValidateTransfer(sender.ID, target.ID, amount); err != nil {
		if errors.Is(err, service.ErrSelfTransfer) {
			return c.Reply("❌ You cannot pay yourself")
		}
		return c.Reply("❌ Amount must be greater than 0")
	}

	if _, err := ensureSender(ctx, h.accountService, c); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure user")
		return c.Reply("❌ Operation failed, please try again later")
	}

	if err := h.transferService.Transfer(ctx, sender.ID, target.ID, amount); err != nil {
		switch {
		case service.IsInsufficientFunds(err):
			return c.Reply("❌ Insufficient balance")
		case errors.Is(err, repository.ErrUserNotFound):
			return c.Reply(fmt.Sprintf("❌ %s has no account yet", displayName(target)))
		}
		log.Error().Err(err).Int64("from_id", sender.ID).Int64("to_id", target.ID).Msg("Transfer failed")
		return c.Reply("❌ Transfer failed, please try again later")
	}

	balance, err := h.accountService.Balance(ctx, sender.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to load balance after transfer")
	}

	return c.Reply(fmt.Sprintf(
		"✅ Sent %s coins to %s\n"+
			"💰 Balance: %s",
		money.Format(amount), displayName(target), money.Format(balance),
	))
}

// payTarget finds the receiver of a /pay message.
func payTarget(msg *tele.Message) *tele.User {
	if msg == nil {
		return nil
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Sender != nil && !msg.ReplyTo.Sender.IsBot {
		return msg.ReplyTo.Sender
	}
	for _, e := range msg.Entities {
		if e.Type == tele.EntityTMention && e.User != nil {
			return e.User
		}
	}
	return nil
}

// parsePayAmount takes the last argument so "/pay @name 10" and "/pay 10" both work.
func parsePayAmount(args []string) (decimal.Decimal, error) {
	if len(args) == 0 {
		return decimal.Zero, errors.New(payUsage)
	}
	amount, err := money.Parse(args[len(args)-1])
	if err != nil {
		return decimal.Zero, fmt.Errorf("❌ Amount must be a positive number with at most %d decimals", money.MaxScale)
	}
	return amount, nil
}
