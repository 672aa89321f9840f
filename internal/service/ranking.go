package service

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// RankingService serves the balance leaderboard and daily profit rankings.
type RankingService struct {
	userRepo *repository.UserRepository
	txRepo   *repository.TransactionRepository
	clock    quartz.Clock
	timezone *time.Location
}

// NewRankingService creates a new RankingService instance. A nil timezone means UTC.
func NewRankingService(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	clock quartz.Clock,
	timezone *time.Location,
) *RankingService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &RankingService{
		userRepo: userRepo,
		txRepo:   txRepo,
		clock:    clock,
		timezone: timezone,
	}
}

func (s *RankingService) today() time.Time {
	return s.clock.Now().In(s.timezone)
}

// GetTopUsers retrieves the top users by balance.
func (s *RankingService) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return s.userRepo.GetTopUsers(ctx, limit)
}

// GetDailyWinners retrieves today's users with the most game profit.
func (s *RankingService) GetDailyWinners(ctx context.Context, limit int) ([]*model.DailyRank, error) {
	return s.txRepo.GetDailyWinners(ctx, s.today(), limit)
}

// GetDailyLosers retrieves today's users with the biggest game loss.
func (s *RankingService) GetDailyLosers(ctx context.Context, limit int) ([]*model.DailyRank, error) {
	return s.txRepo.GetDailyLosers(ctx, s.today(), limit)
}

// GetUserDailyProfit retrieves a specific user's game profit for today.
func (s *RankingService) GetUserDailyProfit(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.txRepo.GetUserDailyProfit(ctx, userID, s.today())
}
