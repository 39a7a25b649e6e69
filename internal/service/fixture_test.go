package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tips-service/internal/domain"
	"tips-service/internal/repository"
	"tips-service/internal/repository/sqlite"
	"tips-service/internal/security"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db       *sql.DB
	accounts repository.AccountRepository
	games    repository.GameRepository
	hasher   *security.BcryptHasher
	tokens   *security.TokenIssuer
	clock    *testClock
	svc      AccountService
	gameSvc  GameService
	stats    StatsService
	adminID  string
}

const testAdminPassword = "admin123"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := sqlite.NewAccountRepository(db)
	games := sqlite.NewGameRepository(db)
	require.NoError(t, accounts.Init(ctx))
	require.NoError(t, games.Init(ctx))

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := security.NewTokenIssuer("test-secret", 24*time.Hour, clock.Now)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		accounts: accounts,
		games:    games,
		hasher:   hasher,
		tokens:   tokens,
		clock:    clock,
		svc:      NewAccountService(accounts, hasher, tokens, AccountOptions{DefaultVIPDays: 30, Now: clock.Now}),
		gameSvc:  NewGameService(accounts, games, clock.Now),
		stats:    NewStatsService(accounts, games, clock.Now),
	}

	created, err := f.svc.EnsureDefaultAdmin(ctx, BootstrapAdmin{Username: "admin", Email: "admin@localhost", Password: testAdminPassword})
	require.NoError(t, err)
	require.True(t, created)
	admin, err := accounts.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	f.adminID = admin.ID
	return f
}

func (f *fixture) register(t *testing.T, username, email, password string) *domain.Account {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return res.Account
}

func (f *fixture) reload(t *testing.T, id string) *domain.Account {
	t.Helper()
	account, err := f.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

// deactivate flips isActive directly; no exposed transition does this.
func deactivate(t *testing.T, f *fixture, id string) {
	t.Helper()
	_, err := f.db.ExecContext(context.Background(), `UPDATE accounts SET is_active = 0 WHERE id = ?`, id)
	require.NoError(t, err)
}
