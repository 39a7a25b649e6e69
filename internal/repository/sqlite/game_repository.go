package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tips-service/internal/domain"
	"tips-service/internal/repository"
)

const createGamesTable = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	home_team TEXT NOT NULL,
	away_team TEXT NOT NULL,
	league TEXT NOT NULL DEFAULT '',
	prediction TEXT NOT NULL,
	odds REAL NOT NULL,
	kickoff_at DATETIME NOT NULL,
	is_vip INTEGER NOT NULL DEFAULT 0,
	result TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_kickoff ON games (kickoff_at);
`

const gameColumns = `id, home_team, away_team, league, prediction, odds, kickoff_at, is_vip, result, created_at, updated_at`

type GameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createGamesTable); err != nil {
		return fmt.Errorf("create games table: %w", err)
	}
	return nil
}

func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	now := dbTime(time.Now())
	game.CreatedAt = now
	game.UpdatedAt = now
	game.KickoffAt = dbTime(game.KickoffAt)
	if game.Result == "" {
		game.Result = domain.GameResultPending
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO games (`+gameColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.ID,
		game.HomeTeam,
		game.AwayTeam,
		game.League,
		game.Prediction,
		game.Odds,
		game.KickoffAt,
		game.IsVIP,
		string(game.Result),
		game.CreatedAt,
		game.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert game: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) Update(ctx context.Context, game *domain.Game) error {
	game.UpdatedAt = dbTime(time.Now())
	game.KickoffAt = dbTime(game.KickoffAt)
	res, err := r.db.ExecContext(ctx, `
UPDATE games
SET home_team=?, away_team=?, league=?, prediction=?, odds=?, kickoff_at=?, is_vip=?, updated_at=?
WHERE id=?`,
		game.HomeTeam,
		game.AwayTeam,
		game.League,
		game.Prediction,
		game.Odds,
		game.KickoffAt,
		game.IsVIP,
		game.UpdatedAt,
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return requireAffected(res, "update game")
}

func (r *GameRepository) UpdateResult(ctx context.Context, id string, result domain.GameResult) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE games
SET result=?, updated_at=?
WHERE id=?`,
		string(result),
		dbTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update game result: %w", err)
	}
	return requireAffected(res, "update game result")
}

func (r *GameRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return requireAffected(res, "delete game")
}

func (r *GameRepository) Get(ctx context.Context, id string) (*domain.Game, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	return scanGame(row)
}

func (r *GameRepository) List(ctx context.Context, includeVIP bool) ([]domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	if !includeVIP {
		query += ` WHERE is_vip = 0`
	}
	query += ` ORDER BY kickoff_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (r *GameRepository) Stats(ctx context.Context) (domain.GameStats, error) {
	var stats domain.GameStats
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(1),
	COALESCE(SUM(is_vip), 0),
	COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0)
FROM games`,
		string(domain.GameResultWon),
		string(domain.GameResultLost),
		string(domain.GameResultPending),
	).Scan(
		&stats.Total,
		&stats.VIP,
		&stats.Won,
		&stats.Lost,
		&stats.Pending,
	)
	if err != nil {
		return domain.GameStats{}, fmt.Errorf("game stats: %w", err)
	}
	return stats, nil
}

func scanGame(row interface {
	Scan(dest ...any) error
}) (*domain.Game, error) {
	var (
		game   domain.Game
		result string
	)
	if err := row.Scan(
		&game.ID,
		&game.HomeTeam,
		&game.AwayTeam,
		&game.League,
		&game.Prediction,
		&game.Odds,
		&game.KickoffAt,
		&game.IsVIP,
		&result,
		&game.CreatedAt,
		&game.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan game: %w", err)
	}
	parsed, err := domain.ParseGameResult(result)
	if err != nil {
		return nil, fmt.Errorf("scan game %s: %w", game.ID, err)
	}
	game.Result = parsed
	game.KickoffAt = game.KickoffAt.UTC()
	game.CreatedAt = game.CreatedAt.UTC()
	game.UpdatedAt = game.UpdatedAt.UTC()
	return &game, nil
}
