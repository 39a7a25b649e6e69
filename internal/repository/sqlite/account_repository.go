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

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin INTEGER NOT NULL DEFAULT 0,
	has_paid INTEGER NOT NULL DEFAULT 0,
	vip_start_date DATETIME NULL,
	vip_expiry_date DATETIME NULL,
	vip_reference TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	is_blocked INTEGER NOT NULL DEFAULT 0,
	needs_password_change INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const accountColumns = `id, username, email, password_hash, is_admin, has_paid, vip_start_date, vip_expiry_date, vip_reference, is_active, is_blocked, needs_password_change, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAccountsTable); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	now := dbTime(time.Now())
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.CreatedAt = dbTime(account.CreatedAt)
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO accounts (`+accountColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.IsAdmin,
		account.HasPaid,
		nullTime(account.VIPStartDate),
		nullTime(account.VIPExpiryDate),
		account.VIPReference,
		account.IsActive,
		account.IsBlocked,
		account.NeedsPasswordChange,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert account: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM accounts WHERE username = ? OR email = ?`,
		username,
		email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, needsChange bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET password_hash=?, needs_password_change=?, updated_at=?
WHERE id=?`,
		passwordHash,
		needsChange,
		dbTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update account password: %w", err)
	}
	return requireAffected(res, "update account password")
}

func (r *AccountRepository) SetVIP(ctx context.Context, id string, start, expiry time.Time, reference string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET has_paid=1, vip_start_date=?, vip_expiry_date=?, vip_reference=?, updated_at=?
WHERE id=?`,
		dbTime(start),
		dbTime(expiry),
		reference,
		dbTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set account vip: %w", err)
	}
	return requireAffected(res, "set account vip")
}

func (r *AccountRepository) ClearVIP(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET has_paid=0, vip_start_date=NULL, vip_expiry_date=NULL, vip_reference='', updated_at=?
WHERE id=?`,
		dbTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("clear account vip: %w", err)
	}
	return requireAffected(res, "clear account vip")
}

func (r *AccountRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET is_blocked=?, updated_at=?
WHERE id=?`,
		blocked,
		dbTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set account blocked: %w", err)
	}
	return requireAffected(res, "set account blocked")
}

func (r *AccountRepository) ClearExpiredVIP(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET has_paid=0, vip_start_date=NULL, vip_expiry_date=NULL, vip_reference='', updated_at=?
WHERE has_paid=1 AND vip_expiry_date IS NOT NULL AND vip_expiry_date <= ?`,
		dbTime(time.Now()),
		dbTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired vip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear expired vip rows affected: %w", err)
	}
	return n, nil
}

func (r *AccountRepository) Stats(ctx context.Context, now time.Time) (domain.AccountStats, error) {
	var stats domain.AccountStats
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(1),
	COALESCE(SUM(is_admin), 0),
	COALESCE(SUM(CASE WHEN has_paid = 1 AND vip_expiry_date > ? THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(is_blocked), 0),
	COALESCE(SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(needs_password_change), 0)
FROM accounts`, dbTime(now)).Scan(
		&stats.Total,
		&stats.Admins,
		&stats.VIP,
		&stats.Blocked,
		&stats.Inactive,
		&stats.NeedsPasswordChange,
	)
	if err != nil {
		return domain.AccountStats{}, fmt.Errorf("account stats: %w", err)
	}
	return stats, nil
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	var (
		account   domain.Account
		vipStart  sql.NullTime
		vipExpiry sql.NullTime
	)
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.IsAdmin,
		&account.HasPaid,
		&vipStart,
		&vipExpiry,
		&account.VIPReference,
		&account.IsActive,
		&account.IsBlocked,
		&account.NeedsPasswordChange,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.VIPStartDate = timePtr(vipStart)
	account.VIPExpiryDate = timePtr(vipExpiry)
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return &account, nil
}
