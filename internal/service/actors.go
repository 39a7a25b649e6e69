package service

import (
	"context"
	"errors"
	"fmt"

	"tips-service/internal/domain"
	"tips-service/internal/policy"
	"tips-service/internal/repository"
)

// actors resolves the live account behind a request and authorizes it. The
// record is re-read on every call, so flags embedded in a token never decide.
type actors struct {
	accounts repository.AccountRepository
}

func (a actors) authorize(ctx context.Context, actorID string, action policy.Action, target *domain.Account) (*domain.Account, error) {
	if actorID == "" {
		return nil, decisionError(policy.CanPerform(action, nil, target))
	}
	actor, err := a.accounts.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load actor: %w", err)
	}
	if err := decisionError(policy.CanPerform(action, actor, target)); err != nil {
		return nil, err
	}
	return actor, nil
}

func (a actors) target(ctx context.Context, id string) (*domain.Account, error) {
	account, err := a.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load account %s: %w", id, err)
	}
	return account, nil
}
