package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/gather"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/money"
	"telegram-roulette-bot/internal/service"
)

const rankingSize = 10

// RankingHandler handles leaderboard and statistics commands.
type RankingHandler struct {
	rankingService *service.RankingService
	statsService   *service.StatsService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService, statsService *service.StatsService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		statsService:   statsService,
	}
}

// HandleTop handles the /top command: the richest users.
func (h *RankingHandler) HandleTop(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	users, err := h.rankingService.GetTopUsers(ctx, rankingSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load top users")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}
	if len(users) == 0 {
		return c.Reply("📊 No players yet")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Richest TOP %d\n%s\n", rankingSize, divider)
	for i, user := range users {
		fmt.Fprintf(&sb, "%s @%s: %s\n", rankLabel(i), userLabel(user), money.Format(user.Balance))
	}
	sb.WriteString(divider)
	return c.Reply(sb.String())
}

// HandleDailyTop handles the /daily_top command: today's winners and losers.
func (h *RankingHandler) HandleDailyTop(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	winners, err := h.rankingService.GetDailyWinners(ctx, rankingSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load daily winners")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}
	losers, err := h.rankingService.GetDailyLosers(ctx, rankingSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load daily losers")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Today's games\n%s\n", divider)
	fmt.Fprintf(&sb, "🏆 Winners TOP %d\n", rankingSize)
	writeDailyRanks(&sb, winners, true)
	fmt.Fprintf(&sb, "\n%s\n😢 Losers TOP %d\n", divider, rankingSize)
	writeDailyRanks(&sb, losers, false)
	sb.WriteString(divider)
	return c.Reply(sb.String())
}

func writeDailyRanks(sb *strings.Builder, ranks []*model.DailyRank, podium bool) {
	if len(ranks) == 0 {
		sb.WriteString("No data yet\n")
		return
	}
	for i, r := range ranks {
		label := fmt.Sprintf("%d.", i+1)
		if podium {
			label = rankLabel(i)
		}
		name := r.Username
		if name == "" {
			name = fmt.Sprintf("User%d", r.UserID)
		}
		amount := money.Format(r.NetProfit)
		if r.NetProfit.IsPositive() {
			amount = "+" + amount
		}
		fmt.Fprintf(sb, "%s %s: %s\n", label, name, amount)
	}
}

// statLabels maps counter keys to display names. Unknown keys are shown raw.
var statLabels = map[string]string{
	model.StatRouletteGames:      "🎯 Roulette games",
	model.StatRouletteSurvived:   "😮‍💨 Shots survived",
	model.StatRouletteEliminated: "💀 Eliminations",
	model.StatRouletteCashOuts:   "💰 Cash-outs",
	model.StatRouletteWins:       "🏆 Wins",
}

// HandleStats handles the /stats command: the sender's counters.
func (h *RankingHandler) HandleStats(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	counters, err := h.statsService.Counters(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load statistics")
		return c.Reply("❌ Could not load your statistics, please try again later")
	}
	if len(counters) == 0 {
		return c.Reply("📊 No statistics yet. Try /gather or /roulette")
	}
	return c.Reply(FormatStats(displayName(sender), counters))
}

// FormatStats renders counters: game statistics first, then items.
func FormatStats(name string, counters []*model.Counter) string {
	var games, items []*model.Counter
	for _, ctr := range counters {
		if _, ok := statLabels[ctr.Key]; ok {
			games = append(games, ctr)
		} else {
			items = append(items, ctr)
		}
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].Key < games[j].Key })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Statistics of %s\n%s\n", name, divider)
	for _, ctr := range games {
		fmt.Fprintf(&sb, "%s: %d\n", statLabels[ctr.Key], ctr.Value)
	}
	if len(items) > 0 {
		if len(games) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("🎒 Collected\n")
		for _, ctr := range items {
			label, ok := gather.Label(ctr.Key)
			if !ok {
				label = ctr.Key
			}
			fmt.Fprintf(&sb, "%s: %d\n", label, ctr.Value)
		}
	}
	sb.WriteString(divider)
	return sb.String()
}
