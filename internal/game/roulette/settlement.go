package roulette

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/model"
)

type payout struct {
	playerID int64
	amount   decimal.Decimal
	txType   string
}

// pay credits every payout in order. If one fails, the ones already made are
// debited back so the caller can leave the session untouched.
func (e *Engine) pay(ctx context.Context, s *Session, payouts []payout) error {
	for i, p := range payouts {
		if p.amount.IsZero() {
			continue
		}
		if err := e.ledger.Credit(ctx, p.playerID, p.amount, p.txType); err != nil {
			log.Error().Err(err).
				Str("session_id", s.id).
				Int64("user_id", p.playerID).
				Str("amount", p.amount.String()).
				Msg("Roulette payout failed")
			e.rollback(ctx, s, payouts[:i])
			return fmt.Errorf("roulette: pay %d: %w", p.playerID, err)
		}
	}
	return nil
}

func (e *Engine) rollback(ctx context.Context, s *Session, paid []payout) {
	for _, p := range paid {
		if p.amount.IsZero() {
			continue
		}
		if err := e.ledger.Debit(ctx, p.playerID, p.amount, p.txType); err != nil {
			log.Error().Err(err).
				Str("session_id", s.id).
				Int64("user_id", p.playerID).
				Str("amount", p.amount.String()).
				Msg("Failed to roll back roulette payout")
		}
	}
}

// settleWinner pays the sole survivor the pot plus their own stake.
func (e *Engine) settleWinner(ctx context.Context, s *Session, rep *Report, winner *Player) error {
	prize := s.pot.Add(winner.Stake)
	if err := e.pay(ctx, s, []payout{{playerID: winner.ID, amount: prize, txType: model.TxTypeRouletteWin}}); err != nil {
		return err
	}
	e.clearDecision(s)
	e.finish(ctx, s, rep, winner, prize)
	return nil
}

// abandon refunds every alive player's current stake and closes the session.
func (e *Engine) abandon(ctx context.Context, s *Session) (*Report, error) {
	var payouts []payout
	for _, id := range s.AliveIDs() {
		payouts = append(payouts, payout{playerID: id, amount: s.players[id].Stake, txType: model.TxTypeRouletteRefund})
	}
	if err := e.pay(ctx, s, payouts); err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, p := range payouts {
		pl := s.players[p.playerID]
		pl.Alive = false
		rep.add(EventRefunded, pl, p.amount)
	}

	log.Info().Str("session_id", s.id).Int("refunds", len(payouts)).Msg("Roulette game abandoned")

	e.finish(ctx, s, rep, nil, decimal.Zero)
	rep.Outcome.Abandoned = true
	return e.emit(ctx, s, rep), nil
}

// finish resolves the session and releases its registry entries. A nil winner
// means the pot is forfeited.
func (e *Engine) finish(ctx context.Context, s *Session, rep *Report, winner *Player, prize decimal.Decimal) {
	s.phase = PhaseResolved
	s.awaiting = 0
	s.stopTimers()
	s.closed.Store(true)
	e.registry.Release(s.id)

	out := &Outcome{Payout: prize}
	if winner != nil {
		out.WinnerID = winner.ID
		out.WinnerName = winner.Name
		e.record(ctx, winner.ID, model.StatRouletteWins)
	} else {
		out.Forfeited = s.pot
	}
	rep.Outcome = out
	rep.add(EventResolved, winner, prize)

	log.Info().
		Str("session_id", s.id).
		Int64("winner_id", out.WinnerID).
		Str("payout", prize.String()).
		Str("forfeited", out.Forfeited.String()).
		Int("rounds", s.round).
		Msg("Roulette game resolved")
}
