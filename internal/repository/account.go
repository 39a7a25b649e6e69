package repository

import (
	"context"
	"time"

	"tips-service/internal/domain"
)

// AccountRepository defines persistence operations for Account records.
// Every Update*/Set*/Clear* method touches only the columns it names in a single
// statement, so concurrent transitions on one account never clobber each other.
type AccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]domain.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, needsChange bool) error
	SetVIP(ctx context.Context, id string, start, expiry time.Time, reference string) error
	ClearVIP(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	ClearExpiredVIP(ctx context.Context, now time.Time) (int64, error)
	// Stats counts VIP only for grants still valid at now.
	Stats(ctx context.Context, now time.Time) (domain.AccountStats, error)
}
