package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
	rankingService *service.RankingService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService, rankingService *service.RankingService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		rankingService: rankingService,
	}
}

// HandleStart handles the /start command.
// Creates a new account with the initial coins if the user doesn't exist.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	username := displayName(sender)
	user, created, err := h.accountService.EnsureUser(ctx, sender.ID, username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to create account")
		return c.Reply("❌ Could not create your account, please try again later")
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 Welcome @%s!\n\n"+
				"Your account is ready with %s coins.\n\n"+
				"Commands:\n"+
				"/balance - show your balance\n"+
				"/daily - claim the daily reward\n"+
				"/gather - search for items to sell\n"+
				"/harvest - collect your crop\n"+
				"/roulette <bullets> <bet> [players] - Russian Roulette\n"+
				"/pay <amount> - reply to someone to send coins\n"+
				"/top - richest players\n"+
				"/stats - your statistics",
			username, money.Format(user.Balance),
		))
	}

	return c.Reply(fmt.Sprintf("👋 Welcome back @%s!\n\nBalance: %s coins", username, money.Format(user.Balance)))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if c.Sender() == nil {
		return nil
	}

	user, err := ensureSender(ctx, h.accountService, c)
	if err != nil {
		log.Error().Err(err).Int64("user_id", c.Sender().ID).Msg("Failed to load balance")
		return c.Reply("❌ Could not load your balance, please try again later")
	}
	return c.Reply(fmt.Sprintf("💰 Balance: %s coins", money.Format(user.Balance)))
}

// HandleMy handles the /my command: balance plus today's game result.
func (h *AccountHandler) HandleMy(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if c.Sender() == nil {
		return nil
	}

	user, err := ensureSender(ctx, h.accountService, c)
	if err != nil {
		log.Error().Err(err).Int64("user_id", c.Sender().ID).Msg("Failed to load account")
		return c.Reply("❌ Could not load your account, please try again later")
	}

	profit, err := h.rankingService.GetUserDailyProfit(ctx, user.TelegramID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.TelegramID).Msg("Failed to load daily profit")
	}
	profitStr := money.Format(profit)
	if profit.IsPositive() {
		profitStr = "+" + profitStr
	}

	return c.Reply(fmt.Sprintf(
		"📊 Account\n"+divider+"\n"+
			"👤 User: @%s\n"+
			"💰 Balance: %s\n"+
			"📈 Today: %s\n"+divider,
		userLabel(user), money.Format(user.Balance), profitStr,
	))
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
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

	claim, err := h.accountService.ClaimDaily(ctx, sender.ID)
	switch {
	case errors.Is(err, service.ErrDailyAlreadyClaimed):
		return c.Reply(fmt.Sprintf("⏰ Already claimed. Come back in %s", service.FormatRemaining(claim.Remaining)))
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to claim daily reward")
		return c.Reply("❌ Could not claim the daily reward, please try again later")
	}

	return c.Reply(fmt.Sprintf("✅ You received %s coins. Balance: %s",
		money.Format(claim.Reward), money.Format(claim.Balance)))
}
