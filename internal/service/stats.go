package service

import (
	"context"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// StatsService exposes per-user counters: gathered items and game statistics.
type StatsService struct {
	counters *repository.CounterRepository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(counters *repository.CounterRepository) *StatsService {
	return &StatsService{counters: counters}
}

// Increment adds delta to the named counter.
func (s *StatsService) Increment(ctx context.Context, userID int64, key string, delta int64) error {
	_, err := s.counters.Add(ctx, userID, key, delta)
	return err
}

// Counters returns every non-zero counter of the user.
func (s *StatsService) Counters(ctx context.Context, userID int64) ([]*model.Counter, error) {
	return s.counters.All(ctx, userID)
}
