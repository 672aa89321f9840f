// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/service"
)

// requestTimeout bounds the work a single update may do.
const requestTimeout = 15 * time.Second

const divider = "━━━━━━━━━━━━━━━"

var medals = []string{"🥇", "🥈", "🥉"}

// displayName returns the sender's username, falling back to the first name.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("User%d", u.ID)
}

// rankLabel returns a medal for the podium and "n." otherwise.
func rankLabel(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func userLabel(u *model.User) string {
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User%d", u.TelegramID)
}

// ensureSender makes sure the sender has an account before any balance operation.
func ensureSender(ctx context.Context, accounts *service.AccountService, c tele.Context) (*model.User, error) {
	sender := c.Sender()
	user, _, err := accounts.EnsureUser(ctx, sender.ID, displayName(sender))
	return user, err
}
