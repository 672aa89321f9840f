package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/service"
)

// RouletteHandler handles Russian Roulette commands and buttons. Successful
// transitions are announced by the engine's notifier; the handler only answers
// rejections.
type RouletteHandler struct {
	accountService *service.AccountService
	engine         *roulette.Engine
}

// NewRouletteHandler creates a new RouletteHandler.
func NewRouletteHandler(accountService *service.AccountService, engine *roulette.Engine) *RouletteHandler {
	return &RouletteHandler{
		accountService: accountService,
		engine:         engine,
	}
}

func rouletteUsage() string {
	return fmt.Sprintf(
		"🎯 Russian Roulette\n\n"+
			"Usage: /roulette <bullets> <bet> [players]\n"+
			"Bullets: %d-%d of %d chambers. Players: 1-%d\n"+
			"Every shot you survive grows your stake by 30%%. Cash out any time,\n"+
			"or be the last one standing to take the whole pot.\n"+
			"Example: /roulette 2 100 4",
		roulette.MinBullets, roulette.MaxBullets, roulette.ChamberSize, roulette.MaxPlayers,
	)
}

// rejectionText maps an engine rejection to a user-facing message.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, roulette.ErrGameNotFound):
		return "❌ This game is over"
	case errors.Is(err, roulette.ErrChannelBusy):
		return "❌ A game is already running in this chat"
	case errors.Is(err, roulette.ErrPlayerAlreadyInGame):
		return "❌ You are already playing another game"
	case errors.Is(err, roulette.ErrGameFull):
		return "❌ The game is full"
	case errors.Is(err, roulette.ErrGameAlreadyStarted):
		return "❌ The game has already started"
	case errors.Is(err, roulette.ErrDuplicateJoin):
		return "❌ You already joined"
	case errors.Is(err, roulette.ErrNotYourTurn):
		return "❌ Not your turn"
	case errors.Is(err, roulette.ErrNotHost):
		return "❌ Only the host can do that"
	case errors.Is(err, roulette.ErrInsufficientBalance):
		return "❌ Insufficient balance"
	case errors.Is(err, roulette.ErrInvalidParameters):
		return "❌ " + err.Error()
	default:
		return "❌ Something went wrong, please try again later"
	}
}

// ParseCreateArgs parses "<bullets> <bet> [players]".
// Range checks are left to the engine.
func ParseCreateArgs(args []string) (roulette.CreateRequest, error) {
	var req roulette.CreateRequest
	if len(args) < 2 || len(args) > 3 {
		return req, errors.New("wrong number of arguments")
	}

	bullets, err := strconv.Atoi(args[0])
	if err != nil {
		return req, fmt.Errorf("bullets: %w", err)
	}
	bet, err := money.Parse(args[1])
	if err != nil {
		return req, fmt.Errorf("bet: %w", err)
	}
	req.Bullets = bullets
	req.Bet = bet

	if len(args) == 3 {
		players, err := strconv.Atoi(args[2])
		if err != nil || players < 1 {
			return req, fmt.Errorf("players: invalid count %q", args[2])
		}
		req.MaxPlayers = players
	}
	return req, nil
}

// HandleRoulette handles /roulette: creates a game, or shows the running one
// when called without arguments.
func (h *RouletteHandler) HandleRoulette(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if len(c.Args()) == 0 {
		if v, ok := h.engine.ChannelView(chat.ID); ok {
			if markup := roulette.Markup(v); markup != nil {
				return c.Reply(roulette.FormatStatus(v), markup)
			}
			return c.Reply(roulette.FormatStatus(v))
		}
		return c.Reply(rouletteUsage())
	}

	req, err := ParseCreateArgs(c.Args())
	if err != nil {
		return c.Reply(rouletteUsage())
	}
	req.ChannelID = chat.ID
	req.HostID = sender.ID
	req.HostName = displayName(sender)

	if _, err := ensureSender(ctx, h.accountService, c); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure account")
		return c.Reply(rejectionText(err))
	}

	if _, err := h.engine.CreateGame(ctx, req); err != nil {
		if !roulette.IsRejection(err) {
			log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("Failed to create roulette game")
		}
		return c.Reply(rejectionText(err))
	}
	return nil
}

// HandleCancel handles /roulette_cancel: the host closes the lobby and every
// stake is refunded.
func (h *RouletteHandler) HandleCancel(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if _, err := h.engine.Cancel(ctx, chat.ID, sender.ID); err != nil {
		if errors.Is(err, roulette.ErrGameNotFound) {
			return c.Reply("❌ No game is waiting in this chat")
		}
		if !roulette.IsRejection(err) {
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to cancel roulette game")
		}
		return c.Reply(rejectionText(err))
	}
	return nil
}

// HandleAbandon handles /roulette_abandon (admin): tears down the chat's game
// in any phase, refunding the stakes of players still alive.
func (h *RouletteHandler) HandleAbandon(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	if _, err := h.engine.Abandon(ctx, chat.ID); err != nil {
		if errors.Is(err, roulette.ErrGameNotFound) {
			return c.Reply("❌ No game is running in this chat")
		}
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to abandon roulette game")
		return c.Reply(rejectionText(err))
	}

	log.Info().Int64("admin_id", c.Sender().ID).Int64("chat_id", chat.ID).Msg("Roulette game abandoned by admin")
	return nil
}

// HandleCallback handles the roulette inline buttons.
func (h *RouletteHandler) HandleCallback(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	callback, sender := c.Callback(), c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	cb, ok := roulette.DecodeCallback(callback.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid action"})
	}

	var err error
	var toast string
	switch cb.Action {
	case roulette.ActionJoin:
		if _, err = ensureSender(ctx, h.accountService, c); err == nil {
			_, err = h.engine.Join(ctx, cb.SessionID, sender.ID, displayName(sender))
		}
		toast = "✅ You're in"
	case roulette.ActionStart:
		_, err = h.engine.Start(ctx, cb.SessionID, sender.ID)
		toast = "🔫 Starting"
	case roulette.ActionContinue:
		_, err = h.engine.Continue(ctx, cb.SessionID, sender.ID, cb.Turn)
		toast = "🔫 Pulling the trigger"
	case roulette.ActionCashOut:
		_, err = h.engine.CashOut(ctx, cb.SessionID, sender.ID, cb.Turn)
		toast = "💰 Cashed out"
	}

	if err != nil {
		if !roulette.IsRejection(err) {
			log.Error().Err(err).
				Str("session_id", cb.SessionID).
				Str("action", cb.Action).
				Int64("user_id", sender.ID).
				Msg("Roulette callback failed")
		}
		return c.Respond(&tele.CallbackResponse{Text: rejectionText(err), ShowAlert: true})
	}
	return c.Respond(&tele.CallbackResponse{Text: toast})
}
