package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"tips-service/internal/domain"
	"tips-service/internal/policy"
	"tips-service/internal/repository"
)

// GameInput is the admin payload for creating or updating a game.
type GameInput struct {
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	League     string    `json:"league"`
	Prediction string    `json:"prediction"`
	Odds       float64   `json:"odds"`
	KickoffAt  time.Time `json:"kickoff_at"`
	IsVIP      bool      `json:"is_vip"`
}

func (in GameInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.HomeTeam, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.AwayTeam, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.League, validation.Length(0, 100)),
		validation.Field(&in.Prediction, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Odds, validation.Required, validation.Min(1.01), validation.Max(1000.0)),
		validation.Field(&in.KickoffAt, validation.Required),
	)
}

func (in GameInput) normalized() GameInput {
	in.HomeTeam = strings.TrimSpace(in.HomeTeam)
	in.AwayTeam = strings.TrimSpace(in.AwayTeam)
	in.League = strings.TrimSpace(in.League)
	in.Prediction = strings.TrimSpace(in.Prediction)
	return in
}

// GameService coordinates the tips catalogue.
type GameService interface {
	ListGames(ctx context.Context, actorID string) ([]domain.Game, error)
	GetGame(ctx context.Context, actorID, id string) (*domain.Game, error)
	CreateGame(ctx context.Context, actorID string, input GameInput) (*domain.Game, error)
	UpdateGame(ctx context.Context, actorID, id string, input GameInput) (*domain.Game, error)
	SetResult(ctx context.Context, actorID, id, result string) (*domain.Game, error)
	DeleteGame(ctx context.Context, actorID, id string) error
}

type gameService struct {
	actors
	games repository.GameRepository
	now   func() time.Time
}

func NewGameService(accounts repository.AccountRepository, games repository.GameRepository, now func() time.Time) GameService {
	if now == nil {
		now = time.Now
	}
	return &gameService{
		actors: actors{accounts: accounts},
		games:  games,
		now:    now,
	}
}

func (s *gameService) ListGames(ctx context.Context, actorID string) ([]domain.Game, error) {
	actor, err := s.authorize(ctx, actorID, policy.ActionViewGames, nil)
	if err != nil {
		return nil, err
	}
	games, err := s.games.List(ctx, policy.CanViewVIP(actor, s.now()))
	if err != nil {
		return nil, err
	}
	return policy.VisibleGames(actor, games, s.now()), nil
}

func (s *gameService) GetGame(ctx context.Context, actorID, id string) (*domain.Game, error) {
	actor, err := s.authorize(ctx, actorID, policy.ActionViewGames, nil)
	if err != nil {
		return nil, err
	}
	game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.IsVIP && !policy.CanViewVIP(actor, s.now()) {
		return nil, ErrNotFound
	}
	return game, nil
}

func (s *gameService) CreateGame(ctx context.Context, actorID string, input GameInput) (*domain.Game, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionCreateGame, nil); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := validationFailure(input.Validate()); err != nil {
		return nil, err
	}

	game := &domain.Game{
		ID:         uuid.NewString(),
		HomeTeam:   input.HomeTeam,
		AwayTeam:   input.AwayTeam,
		League:     input.League,
		Prediction: input.Prediction,
		Odds:       input.Odds,
		KickoffAt:  input.KickoffAt,
		IsVIP:      input.IsVIP,
		Result:     domain.GameResultPending,
	}
	if err := s.games.Create(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, actorID, id string, input GameInput) (*domain.Game, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionUpdateGame, nil); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := validationFailure(input.Validate()); err != nil {
		return nil, err
	}

	game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	game.HomeTeam = input.HomeTeam
	game.AwayTeam = input.AwayTeam
	game.League = input.League
	game.Prediction = input.Prediction
	game.Odds = input.Odds
	game.KickoffAt = input.KickoffAt
	game.IsVIP = input.IsVIP

	if err := s.games.Update(ctx, game); err != nil {
		return nil, gameError(err)
	}
	return game, nil
}

func (s *gameService) SetResult(ctx context.Context, actorID, id, result string) (*domain.Game, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionUpdateGame, nil); err != nil {
		return nil, err
	}
	// ParseGameResult reads blank as pending; settling needs an explicit value
	if strings.TrimSpace(result) == "" {
		return nil, &ValidationError{Fields: map[string]string{"result": "cannot be blank"}}
	}
	parsed, err := domain.ParseGameResult(result)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"result": "must be one of pending, won, lost"}}
	}
	if err := s.games.UpdateResult(ctx, id, parsed); err != nil {
		return nil, gameError(err)
	}
	return s.load(ctx, id)
}

func (s *gameService) DeleteGame(ctx context.Context, actorID, id string) error {
	if _, err := s.authorize(ctx, actorID, policy.ActionDeleteGame, nil); err != nil {
		return err
	}
	return gameError(s.games.Delete(ctx, id))
}

func (s *gameService) load(ctx context.Context, id string) (*domain.Game, error) {
	game, err := s.games.Get(ctx, id)
	if err != nil {
		return nil, gameError(err)
	}
	return game, nil
}

func gameError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("game store: %w", err)
}
