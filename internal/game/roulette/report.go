package roulette

import (
	"context"

	"github.com/shopspring/decimal"
)

// EventKind identifies what happened during a transition.
type EventKind int

const (
	EventCreated EventKind = iota
	EventJoined
	EventStarted
	EventFired
	EventSurvived
	EventReloaded
	EventLastStanding
	EventAwaitingDecision
	EventCashedOut
	EventTimedOut
	EventRefunded
	EventResolved
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventJoined:
		return "joined"
	case EventStarted:
		return "started"
	case EventFired:
		return "fired"
	case EventSurvived:
		return "survived"
	case EventReloaded:
		return "reloaded"
	case EventLastStanding:
		return "last_standing"
	case EventAwaitingDecision:
		return "awaiting_decision"
	case EventCashedOut:
		return "cashed_out"
	case EventTimedOut:
		return "timed_out"
	case EventRefunded:
		return "refunded"
	case EventResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Event is one step of a transition, in the order it happened.
type Event struct {
	Kind       EventKind
	PlayerID   int64
	PlayerName string
	// Amount is the stake involved: the stake lost on a shot, the new stake
	// after a survival, or the amount paid out.
	Amount     decimal.Decimal
	Multiplier float64
	Round      int
}

// Outcome describes how a resolved session was settled.
type Outcome struct {
	WinnerID   int64
	WinnerName string
	Payout     decimal.Decimal
	// Forfeited is the pot nobody collected.
	Forfeited decimal.Decimal
	Abandoned bool
}

// Report is the result of one engine transition: what happened and the state
// it left behind.
type Report struct {
	Events  []Event
	Session View
	Outcome *Outcome
}

func (r *Report) add(kind EventKind, p *Player, amount decimal.Decimal) {
	ev := Event{Kind: kind, Amount: amount}
	if p != nil {
		ev.PlayerID = p.ID
		ev.PlayerName = p.Name
	}
	r.Events = append(r.Events, ev)
}

// Has reports whether the report contains an event of the given kind.
func (r *Report) Has(kind EventKind) bool {
	for _, ev := range r.Events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// Resolved reports whether the transition ended the session.
func (r *Report) Resolved() bool {
	return r.Outcome != nil
}

// Notifier receives every report as it is produced, including those of
// timer-driven transitions nobody called for. It runs with the session locked,
// so reports for one session arrive in order.
type Notifier interface {
	Notify(ctx context.Context, r *Report)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, r *Report)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, r *Report) { f(ctx, r) }

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, *Report) {}
