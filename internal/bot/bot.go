// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/handler"
	"telegram-roulette-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	cleaner *MessageCleaner

	// Handlers
	accountHandler  *handler.AccountHandler
	adminHandler    *handler.AdminHandler
	rankingHandler  *handler.RankingHandler
	transferHandler *handler.TransferHandler
	actionHandler   *handler.ActionHandler
	rouletteHandler *handler.RouletteHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config          *config.Config
	AccountService  *service.AccountService
	TransferService *service.TransferService
	RankingService  *service.RankingService
	StatsService    *service.StatsService
	Actions         *game.Registry
	ActionRunner    *game.Runner
	Roulette        *roulette.Engine
}

// NewTeleBot creates the telebot instance. It is separate from New so the
// roulette engine can be built with a notifier bound to it.
func NewTeleBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	teleBot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Telegram handler error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// New wires the handlers onto teleBot.
func New(teleBot *tele.Bot, cleaner *MessageCleaner, deps *Dependencies) *Bot {
	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		cleaner: cleaner,
	}

	b.accountHandler = handler.NewAccountHandler(deps.AccountService, deps.RankingService)
	b.adminHandler = handler.NewAdminHandler(deps.AccountService)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService, deps.StatsService)
	b.transferHandler = handler.NewTransferHandler(deps.AccountService, deps.TransferService)
	b.actionHandler = handler.NewActionHandler(deps.AccountService, deps.ActionRunner)
	b.rouletteHandler = handler.NewRouletteHandler(deps.AccountService, deps.Roulette)

	b.registerMiddleware()
	b.registerHandlers(deps.Actions)

	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(NewChatGate(b.cfg).Middleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers(actions *game.Registry) {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/my", b.accountHandler.HandleMy)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)

	// Transfer handlers
	b.bot.Handle("/pay", b.transferHandler.HandlePay)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_sub", b.adminHandler.HandleAdminSub)
	adminGroup.Handle("/admin_set", b.adminHandler.HandleAdminSet)
	adminGroup.Handle("/roulette_abandon", b.rouletteHandler.HandleAbandon)

	// Ranking handlers
	b.bot.Handle("/top", b.rankingHandler.HandleTop)
	b.bot.Handle("/daily_top", b.rankingHandler.HandleDailyTop)
	b.bot.Handle("/stats", b.rankingHandler.HandleStats)

	// Timed actions
	for _, a := range actions.List() {
		b.bot.Handle("/"+a.Command(), b.actionHandler.Handle(a.Command()))
	}

	// Roulette
	b.bot.Handle("/roulette", b.rouletteHandler.HandleRoulette)
	b.bot.Handle("/roulette_cancel", b.rouletteHandler.HandleCancel)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to appropriate handlers
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, roulette.CallbackPrefix) {
		return b.rouletteHandler.HandleCallback(c)
	}
	return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown action"})
}

// Run polls for updates and sweeps old messages until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Info().Msg("Starting bot...")

	go func() {
		if err := b.cleaner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Message cleaner stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("Stopping bot...")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}
