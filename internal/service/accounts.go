// Package service provides account business logic, delegating persistence to
// an AccountRepository and secret hashing and token signing to injected
// collaborators.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/atinyakov/catsapi/internal/username"
	"go.uber.org/zap"
)

const (
	// maxCreateAttempts bounds how many times an insert is retried after a
	// concurrent request claims the resolved username first.
	maxCreateAttempts = 3
	// DefaultTokenTTL is the access token lifetime when none is configured.
	DefaultTokenTTL = 30 * time.Minute
	// TokenType is reported alongside issued access tokens.
	TokenType = "bearer"
)

// AccountRepository defines the persistence operations
// required by the account service.
type AccountRepository interface {
	// UsernameExists returns true if an account with the given username exists.
	UsernameExists(ctx context.Context, username string) (bool, error)
	// InsertAccount persists a draft and returns it with its store-assigned ID.
	// It returns common.ErrDuplicateUsername if the username is already taken.
	InsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error)
	// FindByUsername returns the account or common.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	// ListAccounts returns all accounts. Ordering is not significant.
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// SecretHasher is a salted one-way hash with a matching verifier.
type SecretHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer signs time-boxed bearer tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration, extra map[string]any) (string, error)
}

// AccountService implements account creation, authentication and lookup.
type AccountService struct {
	repo     AccountRepository
	hasher   SecretHasher
	tokens   TokenIssuer
	names    *username.Generator
	tokenTTL time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// Option configures an AccountService.
type Option func(*AccountService)

// WithTokenTTL sets the lifetime of tokens issued by Login.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *AccountService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithLogger sets the logger used for retry and failure reporting.
func WithLogger(log *zap.Logger) Option {
	return func(s *AccountService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithUsernameGenerator replaces the default username generator.
func WithUsernameGenerator(g *username.Generator) Option {
	return func(s *AccountService) {
		if g != nil {
			s.names = g
		}
	}
}

// WithClock overrides the time source for account timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AccountService) {
		s.now = now
	}
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo AccountRepository, hasher SecretHasher, tokens TokenIssuer, opts ...Option) *AccountService {
	s := &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		names:    username.New(),
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a new account under a generated unique username.
//
// The existence check and the insert are not atomic, so a concurrent request
// may claim the same username in between. The store's uniqueness constraint
// catches that and the username is resolved again, up to maxCreateAttempts
// times before common.ErrResolutionExhausted is returned.
func (s *AccountService) CreateAccount(ctx context.Context, in models.NewAccount) (*models.Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	base := s.names.Candidate(in.FirstName, in.LastName)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	now := s.now().UTC()
	draft := &models.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Email:        in.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		name, err := s.names.Resolve(ctx, base, s.repo.UsernameExists)
		if err != nil {
			s.log.Error("failed to resolve username", zap.String("base", base), zap.Error(err))
			return nil, fmt.Errorf("%w: resolve username: %w", common.ErrPersistence, err)
		}
		draft.Username = name

		created, err := s.repo.InsertAccount(ctx, draft)
		if err == nil {
			s.log.Info("account created", zap.String("username", created.Username), zap.Int("attempt", attempt))
			return created, nil
		}
		if !errors.Is(err, common.ErrDuplicateUsername) {
			s.log.Error("failed to insert account", zap.String("username", name), zap.Error(err))
			return nil, fmt.Errorf("%w: insert account: %w", common.ErrPersistence, err)
		}
		s.log.Warn("username claimed concurrently, retrying",
			zap.String("username", name),
			zap.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%w after %d attempts", common.ErrResolutionExhausted, maxCreateAttempts)
}

// Authenticate returns the account when secret matches its stored hash.
// Unknown usernames and wrong secrets both yield common.ErrNotFound.
func (s *AccountService) Authenticate(ctx context.Context, name, secret string) (*models.Account, error) {
	acc, err := s.repo.FindByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find account: %w", common.ErrPersistence, err)
	}
	if !s.hasher.Verify(secret, acc.PasswordHash) {
		return nil, common.ErrNotFound
	}
	return acc, nil
}

// Login authenticates the credentials and issues a bearer token for the account.
func (s *AccountService) Login(ctx context.Context, name, secret string) (*models.LoginResponse, error) {
	acc, err := s.Authenticate(ctx, name, secret)
	if err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(acc.Username, s.tokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: tok,
		TokenType:   TokenType,
		User:        acc.Public(),
	}, nil
}

// GetAccount returns the account for name or common.ErrNotFound.
func (s *AccountService) GetAccount(ctx context.Context, name string) (*models.Account, error) {
	acc, err := s.repo.FindByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find account: %w", common.ErrPersistence, err)
	}
	return acc, nil
}

// ListAccounts returns every account.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %w", common.ErrPersistence, err)
	}
	return accounts, nil
}
