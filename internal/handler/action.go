package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/service"
)

// ActionHandler runs the timed economy actions (/gather, /harvest).
type ActionHandler struct {
	accountService *service.AccountService
	runner         *game.Runner
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(accountService *service.AccountService, runner *game.Runner) *ActionHandler {
	return &ActionHandler{
		accountService: accountService,
		runner:         runner,
	}
}

// Handle returns the handler for one registered action command.
func (h *ActionHandler) Handle(command string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		if _, err := ensureSender(ctx, h.accountService, c); err != nil {
			log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure account")
			return c.Reply("❌ Something went wrong, please try again later")
		}

		out, err := h.runner.Run(ctx, command, sender.ID)
		switch {
		case errors.Is(err, game.ErrCooldown):
			return c.Reply(fmt.Sprintf("⏳ %s again in %s", out.Action.Name(), service.FormatRemaining(out.Remaining)))
		case err != nil:
			log.Error().Err(err).Int64("user_id", sender.ID).Str("action", command).Msg("Action failed")
			return c.Reply("❌ Something went wrong, please try again later")
		}

		msg := fmt.Sprintf("%s\n\n⏳ Next %s in %s", out.Result.Description, command, service.FormatRemaining(out.Remaining))
		if balance, err := h.accountService.Balance(ctx, sender.ID); err == nil {
			msg = fmt.Sprintf("%s\n💰 Balance: %s", msg, money.Format(balance))
		}
		return c.Reply(msg)
	}
}
