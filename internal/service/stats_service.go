package service

import (
	"context"
	"time"

	"tips-service/internal/domain"
	"tips-service/internal/policy"
	"tips-service/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Accounts domain.AccountStats
	Games    domain.GameStats
	WinRate  float64
}

// StatsService summarizes accounts and games for admins.
type StatsService interface {
	AdminStats(ctx context.Context, actorID string) (*Stats, error)
}

type statsService struct {
	actors
	games repository.GameRepository
	now   func() time.Time
}

func NewStatsService(accounts repository.AccountRepository, games repository.GameRepository, now func() time.Time) StatsService {
	if now == nil {
		now = time.Now
	}
	return &statsService{actors: actors{accounts: accounts}, games: games, now: now}
}

func (s *statsService) AdminStats(ctx context.Context, actorID string) (*Stats, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionViewStats, nil); err != nil {
		return nil, err
	}
	accountStats, err := s.accounts.Stats(ctx, s.now())
	if err != nil {
		return nil, err
	}
	gameStats, err := s.games.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Accounts: accountStats,
		Games:    gameStats,
		WinRate:  gameStats.WinRate(),
	}, nil
}
