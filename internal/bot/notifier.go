package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/roulette"
)

// messenger is the subset of *tele.Bot the notifier uses.
type messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// RouletteNotifier posts every roulette report to the game's chat. Only the
// newest panel of a session keeps its buttons; finished panels are handed to
// the cleaner.
type RouletteNotifier struct {
	api     messenger
	cleaner *MessageCleaner

	mu     sync.Mutex
	panels map[string]*tele.Message // session id -> message carrying buttons
}

// NewRouletteNotifier creates a notifier. cleaner may be nil.
func NewRouletteNotifier(api messenger, cleaner *MessageCleaner) *RouletteNotifier {
	return &RouletteNotifier{
		api:     api,
		cleaner: cleaner,
		panels:  make(map[string]*tele.Message),
	}
}

// Notify implements roulette.Notifier. It runs with the session locked, so
// messages of one session are sent in order.
func (n *RouletteNotifier) Notify(_ context.Context, r *roulette.Report) {
	v := r.Session

	n.mu.Lock()
	prev := n.panels[v.ID]
	delete(n.panels, v.ID)
	n.mu.Unlock()

	if prev != nil {
		if _, err := n.api.EditReplyMarkup(prev, nil); err != nil {
			log.Debug().Err(err).Str("session_id", v.ID).Msg("Failed to clear old roulette buttons")
		}
	}

	chat := &tele.Chat{ID: v.ChannelID}
	text := roulette.FormatReport(r)

	var msg *tele.Message
	var err error
	if markup := roulette.Markup(v); markup != nil {
		msg, err = n.api.Send(chat, text, markup)
		if err == nil {
			n.mu.Lock()
			n.panels[v.ID] = msg
			n.mu.Unlock()
		}
	} else {
		msg, err = n.api.Send(chat, text)
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", v.ID).Int64("chat_id", v.ChannelID).Msg("Failed to send roulette update")
		return
	}

	if r.Resolved() && n.cleaner != nil {
		n.cleaner.Track(msg)
	}
}
