package repository

import (
	"context"

	"tips-service/internal/domain"
)

// GameRepository exposes persistence operations for Game predictions.
type GameRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, game *domain.Game) error
	Update(ctx context.Context, game *domain.Game) error
	UpdateResult(ctx context.Context, id string, result domain.GameResult) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Game, error)
	List(ctx context.Context, includeVIP bool) ([]domain.Game, error)
	Stats(ctx context.Context) (domain.GameStats, error)
}
