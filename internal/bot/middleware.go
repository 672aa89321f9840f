package bot

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/game/roulette"
)

// gateVerdict is what ChatGate does with one update.
type gateVerdict int

const (
	gateDrop gateVerdict = iota
	gatePass
	// gatePassAndVouch serves the update and lets the sender use private chat.
	gatePassAndVouch
)

// ChatGate restricts the bot to whitelisted groups. A user seen playing in
// one of those groups may also talk to the bot privately, e.g. to check a
// balance before joining a game.
type ChatGate struct {
	cfg *config.Config

	mu      sync.RWMutex
	vouched map[int64]struct{}
}

// NewChatGate creates a gate with no vouched users.
func NewChatGate(cfg *config.Config) *ChatGate {
	return &ChatGate{cfg: cfg, vouched: make(map[int64]struct{})}
}

// Vouched reports whether userID may use private chat.
func (g *ChatGate) Vouched(userID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.vouched[userID]
	return ok
}

func (g *ChatGate) vouch(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vouched[userID] = struct{}{}
}

// decide classifies an update by its chat and sender. Updates without either
// (channel posts, service messages) are dropped.
func (g *ChatGate) decide(chat *tele.Chat, sender *tele.User) gateVerdict {
	if chat == nil || sender == nil || sender.IsBot {
		return gateDrop
	}
	if chat.Type == tele.ChatPrivate {
		if len(g.cfg.Whitelist.Chats) == 0 || g.Vouched(sender.ID) {
			return gatePass
		}
		return gateDrop
	}
	if g.cfg.IsChatAllowed(chat.ID) {
		return gatePassAndVouch
	}
	return gateDrop
}

// Middleware applies the gate.
func (g *ChatGate) Middleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat, sender := c.Chat(), c.Sender()
			switch g.decide(chat, sender) {
			case gatePassAndVouch:
				g.vouch(sender.ID)
				return next(c)
			case gatePass:
				return next(c)
			}
			if chat != nil {
				log.Debug().
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type)).
					Msg("Update outside whitelisted chats dropped")
			}
			return nil
		}
	}
}

// AdminMiddleware rejects commands from users outside the admin list.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if cfg.IsAdmin(sender.ID) {
				return next(c)
			}

			log.Warn().
				Int64("user_id", sender.ID).
				Str("command", c.Text()).
				Msg("Admin command refused")
			return c.Reply("❌ Permission denied: admin only")
		}
	}
}

// LoggingMiddleware logs every incoming update at debug level. Roulette
// button presses are logged decoded.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if e := log.Debug(); e.Enabled() {
				updateFields(e, c).Msg("Received update")
			}
			return next(c)
		}
	}
}

func updateFields(e *zerolog.Event, c tele.Context) *zerolog.Event {
	if sender := c.Sender(); sender != nil {
		e = e.Int64("user_id", sender.ID).Str("username", sender.Username)
	}
	if chat := c.Chat(); chat != nil {
		e = e.Int64("chat_id", chat.ID)
	}
	cb := c.Callback()
	if cb == nil {
		return e.Str("text", c.Text())
	}
	if rc, ok := roulette.DecodeCallback(cb.Data); ok {
		return e.
			Str("roulette_action", rc.Action).
			Str("session_id", rc.SessionID).
			Int("turn", rc.Turn)
	}
	return e.Str("callback", cb.Data)
}

// RecoveryMiddleware turns a handler panic into a generic reply. Button
// presses get a callback answer so the client stops spinning.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error().Interface("panic", r).Msg("Handler panicked")
				if c.Callback() != nil {
					err = c.Respond(&tele.CallbackResponse{Text: "❌ Internal error"})
					return
				}
				err = c.Reply("❌ Internal error, please try again later")
			}()
			return next(c)
		}
	}
}
