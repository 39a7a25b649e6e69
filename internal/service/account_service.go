package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"tips-service/internal/domain"
	"tips-service/internal/policy"
	"tips-service/internal/repository"
	"tips-service/internal/security"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
	maxVIPDays        = 3650
)

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields only; password strength is enforced on change.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 32)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(1, maxPasswordLength)),
	)
}

// BootstrapAdmin describes the account reconciled at startup.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token     string
	ExpiresIn time.Duration
	Account   *domain.Account
}

// AccountOptions tunes AccountService behavior.
type AccountOptions struct {
	DefaultVIPDays int
	Now            func() time.Time
}

// AccountService applies lifecycle transitions to account records.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	Authorize(ctx context.Context, actorID string, action policy.Action) error
	GetSelf(ctx context.Context, actorID string) (*domain.Account, error)
	ChangePassword(ctx context.Context, actorID, current, next string) error
	ListAccounts(ctx context.Context, actorID string) ([]domain.Account, error)
	GrantVIP(ctx context.Context, actorID, targetID string, days int) (*domain.Account, error)
	RevokeVIP(ctx context.Context, actorID, targetID string) (*domain.Account, error)
	Block(ctx context.Context, actorID, targetID string) (*domain.Account, error)
	Unblock(ctx context.Context, actorID, targetID string) (*domain.Account, error)
	IssueTemporaryPassword(ctx context.Context, actorID, targetID string) (string, error)
	EnsureDefaultAdmin(ctx context.Context, admin BootstrapAdmin) (bool, error)
	ExpireVIP(ctx context.Context) (int64, error)
}

type accountService struct {
	actors
	hasher  security.PasswordHasher
	tokens  *security.TokenIssuer
	vipDays int
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(accounts repository.AccountRepository, hasher security.PasswordHasher, tokens *security.TokenIssuer, opts AccountOptions) AccountService {
	if opts.DefaultVIPDays <= 0 {
		opts.DefaultVIPDays = 30
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &accountService{
		actors:  actors{accounts: accounts},
		hasher:  hasher,
		tokens:  tokens,
		vipDays: opts.DefaultVIPDays,
		now:     opts.Now,
	}
}

func (s *accountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := validationFailure(input.Validate()); err != nil {
		return nil, err
	}

	// friendly fast path; the UNIQUE constraints are the real guarantee
	exists, err := s.accounts.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check account uniqueness: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.issue(account)
}

func (s *accountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same hashing work as a real mismatch
			s.hasher.Verify(password, s.placeholderHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := decisionError(policy.CanPerform(policy.ActionLogin, account, nil)); err != nil {
		return nil, err
	}

	return s.issue(account)
}

func (s *accountService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	identity, err := s.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrUnauthenticated
	}
	account, err := s.accounts.GetByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return sanitizeAccount(account), nil
}

// Authorize checks action for the live actor record without performing it.
func (s *accountService) Authorize(ctx context.Context, actorID string, action policy.Action) error {
	_, err := s.authorize(ctx, actorID, action, nil)
	return err
}

func (s *accountService) GetSelf(ctx context.Context, actorID string) (*domain.Account, error) {
	actor, err := s.authorize(ctx, actorID, policy.ActionViewSelf, nil)
	if err != nil {
		return nil, err
	}
	return sanitizeAccount(actor), nil
}

func (s *accountService) ChangePassword(ctx context.Context, actorID, current, next string) error {
	actor, err := s.authorize(ctx, actorID, policy.ActionChangePassword, nil)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(current, actor.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := fieldFailure("new_password", validation.Validate(next,
		validation.Required,
		validation.Length(minPasswordLength, maxPasswordLength),
	)); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, actor.ID, hash, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *accountService) ListAccounts(ctx context.Context, actorID string) ([]domain.Account, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionListUsers, nil); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}

func (s *accountService) GrantVIP(ctx context.Context, actorID, targetID string, days int) (*domain.Account, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionGrantVIP, nil); err != nil {
		return nil, err
	}
	if days == 0 {
		days = s.vipDays
	}
	if err := fieldFailure("duration_days", validation.Validate(days, validation.Min(1), validation.Max(maxVIPDays))); err != nil {
		return nil, err
	}
	if _, err := s.target(ctx, targetID); err != nil {
		return nil, err
	}

	start := s.now().UTC()
	expiry := start.AddDate(0, 0, days)
	reference := "VIP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err := s.accounts.SetVIP(ctx, targetID, start, expiry, reference); err != nil {
		return nil, s.mutationError(err)
	}
	return s.reload(ctx, targetID)
}

func (s *accountService) RevokeVIP(ctx context.Context, actorID, targetID string) (*domain.Account, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionRevokeVIP, nil); err != nil {
		return nil, err
	}
	if err := s.accounts.ClearVIP(ctx, targetID); err != nil {
		return nil, s.mutationError(err)
	}
	return s.reload(ctx, targetID)
}

func (s *accountService) Block(ctx context.Context, actorID, targetID string) (*domain.Account, error) {
	return s.setBlocked(ctx, actorID, targetID, policy.ActionBlock, true)
}

func (s *accountService) Unblock(ctx context.Context, actorID, targetID string) (*domain.Account, error) {
	return s.setBlocked(ctx, actorID, targetID, policy.ActionUnblock, false)
}

func (s *accountService) setBlocked(ctx context.Context, actorID, targetID string, action policy.Action, blocked bool) (*domain.Account, error) {
	if _, err := s.authorize(ctx, actorID, action, nil); err != nil {
		return nil, err
	}
	if err := s.accounts.SetBlocked(ctx, targetID, blocked); err != nil {
		return nil, s.mutationError(err)
	}
	return s.reload(ctx, targetID)
}

func (s *accountService) IssueTemporaryPassword(ctx context.Context, actorID, targetID string) (string, error) {
	if _, err := s.authorize(ctx, actorID, policy.ActionIssueTempPassword, nil); err != nil {
		return "", err
	}
	if _, err := s.target(ctx, targetID); err != nil {
		return "", err
	}

	code, err := security.TemporaryCode()
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdatePassword(ctx, targetID, hash, true); err != nil {
		return "", s.mutationError(err)
	}
	return code, nil
}

// EnsureDefaultAdmin creates the bootstrap admin when no account carries its
// username. It reports whether an account was created.
func (s *accountService) EnsureDefaultAdmin(ctx context.Context, admin BootstrapAdmin) (bool, error) {
	username := strings.TrimSpace(admin.Username)
	if username == "" {
		return false, errors.New("bootstrap admin username is required")
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return false, err
	}

	// the admin's VIP never lapses, but it still carries dates so hasPaid implies an expiry
	now := s.now().UTC()
	expiry := now.AddDate(100, 0, 0)
	account := &domain.Account{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         strings.TrimSpace(admin.Email),
		PasswordHash:  hash,
		IsAdmin:       true,
		HasPaid:       true,
		VIPStartDate:  &now,
		VIPExpiryDate: &expiry,
		VIPReference:  "BOOTSTRAP",
		IsActive:      true,
		CreatedAt:     now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return false, err
		}
		// lost a race for the username, or the email belongs to someone else
		if _, lookupErr := s.accounts.GetByUsername(ctx, username); lookupErr == nil {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap admin %q: email %q is held by another account: %w", username, account.Email, ErrConflict)
	}
	return true, nil
}

// ExpireVIP clears VIP state from every account whose expiry has passed.
func (s *accountService) ExpireVIP(ctx context.Context) (int64, error) {
	return s.accounts.ClearExpiredVIP(ctx, s.now())
}

func (s *accountService) issue(account *domain.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID, account.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
		Account:   sanitizeAccount(account),
	}, nil
}

func (s *accountService) reload(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.target(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeAccount(account), nil
}

func (s *accountService) mutationError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *accountService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func sanitizeAccount(account *domain.Account) *domain.Account {
	if account == nil {
		return nil
	}
	copied := *account
	copied.PasswordHash = ""
	return &copied
}
