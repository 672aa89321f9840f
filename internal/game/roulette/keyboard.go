package roulette

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// CallbackPrefix marks callback data produced by roulette buttons.
const CallbackPrefix = "rr_"

// Button actions.
const (
	ActionJoin     = "join"
	ActionStart    = "start"
	ActionContinue = "cont"
	ActionCashOut  = "cash"
)

// Callback is decoded button data.
type Callback struct {
	Action    string
	SessionID string
	Turn      int
}

// EncodeCallback builds button data: rr_<action>_<session>[_<turn>].
// Session ids never contain underscores.
func EncodeCallback(cb Callback) string {
	if cb.Turn > 0 {
		return fmt.Sprintf("%s%s_%s_%d", CallbackPrefix, cb.Action, cb.SessionID, cb.Turn)
	}
	return fmt.Sprintf("%s%s_%s", CallbackPrefix, cb.Action, cb.SessionID)
}

// DecodeCallback parses button data. Telebot's leading \f is tolerated.
func DecodeCallback(data string) (Callback, bool) {
	data = strings.TrimPrefix(data, "\f")
	if !strings.HasPrefix(data, CallbackPrefix) {
		return Callback{}, false
	}

	parts := strings.Split(strings.TrimPrefix(data, CallbackPrefix), "_")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Callback{}, false
	}

	cb := Callback{Action: parts[0], SessionID: parts[1]}
	switch cb.Action {
	case ActionJoin, ActionStart:
		if len(parts) != 2 {
			return Callback{}, false
		}
	case ActionContinue, ActionCashOut:
		if len(parts) != 3 {
			return Callback{}, false
		}
		turn, err := strconv.Atoi(parts[2])
		if err != nil || turn <= 0 {
			return Callback{}, false
		}
		cb.Turn = turn
	default:
		return Callback{}, false
	}
	return cb, true
}

// Markup returns the buttons for the session's current state: Join/Start in
// the lobby, Continue/Cash out while a decision is pending, none otherwise.
func Markup(v View) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	switch {
	case v.Phase == PhaseLobby:
		markup.InlineKeyboard = [][]tele.InlineButton{{
			{Text: "🔫 Join", Data: EncodeCallback(Callback{Action: ActionJoin, SessionID: v.ID})},
			{Text: "▶️ Start", Data: EncodeCallback(Callback{Action: ActionStart, SessionID: v.ID})},
		}}
	case v.Phase == PhaseInProgress && v.Awaiting != 0:
		markup.InlineKeyboard = [][]tele.InlineButton{{
			{Text: "🔄 Continue", Data: EncodeCallback(Callback{Action: ActionContinue, SessionID: v.ID, Turn: v.Turn})},
			{Text: "💰 Cash out", Data: EncodeCallback(Callback{Action: ActionCashOut, SessionID: v.ID, Turn: v.Turn})},
		}}
	default:
		return nil
	}
	return markup
}
