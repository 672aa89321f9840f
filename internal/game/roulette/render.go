package roulette

import (
	"fmt"
	"strings"

	"telegram-roulette-bot/internal/pkg/money"
)

// FormatReport renders a report as a chat message.
func FormatReport(r *Report) string {
	var sb strings.Builder
	v := r.Session

	for _, ev := range r.Events {
		if line := formatEvent(v, ev); line != "" {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	if r.Outcome == nil {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(FormatStatus(v))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEvent(v View, ev Event) string {
	name := ev.PlayerName
	switch ev.Kind {
	case EventCreated:
		return fmt.Sprintf("🎯 %s opened a Russian Roulette game: %d/%d bullets, bet %s, up to %d players",
			name, v.InitialBullets, v.ChamberSize, money.Format(v.Bet), v.MaxPlayers)
	case EventJoined:
		return fmt.Sprintf("➕ %s joined (%d/%d)", name, len(v.Players), v.MaxPlayers)
	case EventStarted:
		return "🔫 The cylinder spins. Game on!"
	case EventFired:
		return fmt.Sprintf("💥 BANG! %s is out. %s goes to the pot", name, money.Format(ev.Amount))
	case EventSurvived:
		return fmt.Sprintf("😮‍💨 Click. %s survives, stake now %s (x%.2f)", name, money.Format(ev.Amount), ev.Multiplier)
	case EventReloaded:
		return fmt.Sprintf("🔁 Chamber empty, reloading for round %d", ev.Round+1)
	case EventLastStanding:
		return fmt.Sprintf("🏆 %s is the last player standing and can take %s, or keep pulling the trigger", name, money.Format(ev.Amount))
	case EventAwaitingDecision:
		return fmt.Sprintf("👉 %s: continue or cash out %s?", name, money.Format(ev.Amount))
	case EventCashedOut:
		return fmt.Sprintf("💰 %s cashed out %s", name, money.Format(ev.Amount))
	case EventTimedOut:
		if ev.PlayerID != 0 {
			return fmt.Sprintf("⏰ %s took too long", name)
		}
		return "⏰ Lobby time is up"
	case EventRefunded:
		return fmt.Sprintf("↩️ %s refunded %s", name, money.Format(ev.Amount))
	case EventResolved:
		if ev.PlayerID != 0 {
			return fmt.Sprintf("🏁 Game over. %s wins %s", name, money.Format(ev.Amount))
		}
		if v.Pot.IsPositive() {
			return fmt.Sprintf("🏁 Game over. The house keeps the pot of %s", money.Format(v.Pot))
		}
		return "🏁 Game over"
	default:
		return ""
	}
}

// FormatStatus renders the current roster and chamber state.
func FormatStatus(v View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Round %d | 🔫 %d/%d | Pot %s\n", v.Round+1, v.BulletsRemaining, v.ChamberSize, money.Format(v.Pot))
	for _, p := range v.Players {
		mark := "🙂"
		switch {
		case p.CashedOut:
			mark = "💰"
		case !p.Alive:
			mark = "💀"
		case p.ID == v.Awaiting || (v.Awaiting == 0 && p.ID == v.Current):
			mark = "👉"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, p.Name, money.Format(p.Stake))
	}
	return strings.TrimRight(sb.String(), "\n")
}
