package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/model"
)

func TestParseCreateArgs(t *testing.T) {
	req, err := ParseCreateArgs([]string{"2", "12.50"})
	require.NoError(t, err)
	assert.Equal(t, 2, req.Bullets)
	assert.Equal(t, "12.5", req.Bet.String())
	assert.Zero(t, req.MaxPlayers)

	req, err = ParseCreateArgs([]string{"1", "100", "4"})
	require.NoError(t, err)
	assert.Equal(t, 4, req.MaxPlayers)

	for _, args := range [][]string{
		{"2"},
		{"x", "10"},
		{"2", "-5"},
		{"2", "1.234"},
		{"2", "10", "0"},
		{"2", "10", "many"},
		{"2", "10", "3", "extra"},
	} {
		_, err := ParseCreateArgs(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestRejectionText(t *testing.T) {
	assert.Equal(t, "❌ Not your turn", rejectionText(roulette.ErrNotYourTurn))
	assert.Equal(t, "❌ Insufficient balance", rejectionText(fmt.Errorf("join: %w", roulette.ErrInsufficientBalance)))
	assert.Contains(t, rejectionText(fmt.Errorf("%w: bullets must be between 1 and 5", roulette.ErrInvalidParameters)), "bullets must be between")
	assert.Equal(t, "❌ Something went wrong, please try again later", rejectionText(errors.New("db down")))
}

func TestParseAdminArgs(t *testing.T) {
	id, amount, err := parseAdminArgs([]string{"42", "10.5"}, "admin_add")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "10.5", amount.String())

	_, _, err = parseAdminArgs([]string{"42"}, "admin_add")
	assert.ErrorContains(t, err, "/admin_add <user_id> <amount>")
	_, _, err = parseAdminArgs([]string{"abc", "1"}, "admin_sub")
	assert.Error(t, err)
	_, _, err = parseAdminArgs([]string{"1", "-1"}, "admin_set")
	assert.Error(t, err)
}

func TestFormatStats(t *testing.T) {
	text := FormatStats("alice", []*model.Counter{
		{Key: "item_gem", Value: 2},
		{Key: model.StatRouletteWins, Value: 3},
		{Key: "mystery", Value: 1},
	})
	assert.Contains(t, text, "Statistics of alice")
	assert.Contains(t, text, "🏆 Wins: 3")
	assert.Contains(t, text, "💎 Gem: 2")
	assert.Contains(t, text, "mystery: 1")
	assert.Less(t, strings.Index(text, "Wins"), strings.Index(text, "Collected"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "bob", displayName(&tele.User{ID: 1, Username: "bob", FirstName: "Bob"}))
	assert.Equal(t, "Bob", displayName(&tele.User{ID: 1, FirstName: "Bob"}))
	assert.Equal(t, "User7", displayName(&tele.User{ID: 7}))
	assert.Equal(t, "🥇", rankLabel(0))
	assert.Equal(t, "4.", rankLabel(3))
}

func TestPayTarget(t *testing.T) {
	alice := &tele.User{ID: 1, Username: "alice"}
	bob := &tele.User{ID: 2, Username: "bob"}

	assert.Nil(t, payTarget(nil))
	assert.Nil(t, payTarget(&tele.Message{Text: "/pay 10"}))
	assert.Equal(t, alice, payTarget(&tele.Message{ReplyTo: &tele.Message{Sender: alice}}))
	assert.Nil(t, payTarget(&tele.Message{ReplyTo: &tele.Message{Sender: &tele.User{ID: 3, IsBot: true}}}))
	assert.Equal(t, bob, payTarget(&tele.Message{Entities: tele.Entities{
		{Type: tele.EntityMention},
		{Type: tele.EntityTMention, User: bob},
	}}))
}

func TestParsePayAmount(t *testing.T) {
	amount, err := parsePayAmount([]string{"@bob", "10.5"})
	require.NoError(t, err)
	assert.Equal(t, "10.5", amount.String())

	for _, args := range [][]string{nil, {"ten"}, {"-1"}, {"0.001"}} {
		_, err := parsePayAmount(args)
		assert.Error(t, err, "%v", args)
	}
}
