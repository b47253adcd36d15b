package service_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/atinyakov/catsapi/internal/password"
	"github.com/atinyakov/catsapi/internal/repository"
	"github.com/atinyakov/catsapi/internal/service"
	"github.com/atinyakov/catsapi/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockAccountRepo struct {
	UsernameExistsFunc func(ctx context.Context, username string) (bool, error)
	InsertAccountFunc  func(ctx context.Context, acc *models.Account) (*models.Account, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*models.Account, error)
	ListAccountsFunc   func(ctx context.Context) ([]models.Account, error)
}

func (m *mockAccountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return m.UsernameExistsFunc(ctx, username)
}
func (m *mockAccountRepo) InsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	return m.InsertAccountFunc(ctx, acc)
}
func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return m.FindByUsernameFunc(ctx, username)
}
func (m *mockAccountRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return m.ListAccountsFunc(ctx)
}

var testKey = []byte("test-signing-key")

func newService(repo service.AccountRepository, opts ...service.Option) *service.AccountService {
	return service.NewAccountService(repo, password.NewHasher(bcrypt.MinCost), token.NewService(testKey), opts...)
}

func aliceSmith() models.NewAccount {
	return models.NewAccount{FirstName: "Alice", LastName: "Smith", Password: "secret123"}
}

func TestCreateAccount_Success(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryAccountRepository()
	svc := newService(repo, service.WithClock(func() time.Time { return now }))

	in := aliceSmith()
	in.Email = "alice@example.com"
	acc, err := svc.CreateAccount(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "alice.smith", acc.Username)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Equal(t, now, acc.CreatedAt)
	assert.Equal(t, now, acc.UpdatedAt)
	assert.NotEqual(t, "secret123", acc.PasswordHash)
	assert.True(t, password.NewHasher(bcrypt.MinCost).Verify("secret123", acc.PasswordHash))
}

func TestCreateAccount_SequentialSuffixes(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	svc := newService(repo)

	const n = 5
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		acc, err := svc.CreateAccount(context.Background(), aliceSmith())
		require.NoError(t, err)

		want := "alice.smith"
		if i > 0 {
			want += strconv.Itoa(i)
		}
		assert.Equal(t, want, acc.Username)
		assert.False(t, seen[acc.Username])
		seen[acc.Username] = true
	}
}

// racingRepo makes the first two existence checks wait for each other so both
// callers resolve the same free username before either inserts.
type racingRepo struct {
	*repository.MemoryAccountRepository
	calls   atomic.Int32
	barrier sync.WaitGroup
}

func newRacingRepo() *racingRepo {
	r := &racingRepo{MemoryAccountRepository: repository.NewMemoryAccountRepository()}
	r.barrier.Add(2)
	return r
}

func (r *racingRepo) UsernameExists(ctx context.Context, name string) (bool, error) {
	if r.calls.Add(1) <= 2 {
		r.barrier.Done()
		r.barrier.Wait()
	}
	return r.MemoryAccountRepository.UsernameExists(ctx, name)
}

func TestCreateAccount_ConcurrentSameName(t *testing.T) {
	repo := newRacingRepo()
	svc := newService(repo)

	var wg sync.WaitGroup
	results := make([]*models.Account, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateAccount(context.Background(), aliceSmith())
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].Username, results[1].Username)
	assert.ElementsMatch(t, []string{"alice.smith", "alice.smith1"},
		[]string{results[0].Username, results[1].Username})
}

func TestCreateAccount_RetryAfterDuplicate(t *testing.T) {
	var inserted []string
	repo := &mockAccountRepo{
		UsernameExistsFunc: func(_ context.Context, name string) (bool, error) {
			// the first insert lost the race for "alice.smith"
			return len(inserted) > 0 && name == "alice.smith", nil
		},
		InsertAccountFunc: func(_ context.Context, acc *models.Account) (*models.Account, error) {
			inserted = append(inserted, acc.Username)
			if len(inserted) == 1 {
				return nil, fmt.Errorf("insert: %w", common.ErrDuplicateUsername)
			}
			out := *acc
			out.ID = "id-2"
			return &out, nil
		},
	}

	acc, err := newService(repo).CreateAccount(context.Background(), aliceSmith())
	require.NoError(t, err)
	assert.Equal(t, "alice.smith1", acc.Username)
	assert.Equal(t, []string{"alice.smith", "alice.smith1"}, inserted)
}

func TestCreateAccount_Exhausted(t *testing.T) {
	inserts := 0
	repo := &mockAccountRepo{
		UsernameExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
		InsertAccountFunc: func(context.Context, *models.Account) (*models.Account, error) {
			inserts++
			return nil, common.ErrDuplicateUsername
		},
	}

	_, err := newService(repo).CreateAccount(context.Background(), aliceSmith())
	require.ErrorIs(t, err, common.ErrResolutionExhausted)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, inserts)
}

func TestCreateAccount_InsertFailure(t *testing.T) {
	cause := errors.New("connection refused")
	repo := &mockAccountRepo{
		UsernameExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
		InsertAccountFunc: func(context.Context, *models.Account) (*models.Account, error) {
			return nil, cause
		},
	}

	_, err := newService(repo).CreateAccount(context.Background(), aliceSmith())
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.ErrorIs(t, err, cause)
}

func TestCreateAccount_ExistsFailure(t *testing.T) {
	cause := errors.New("timeout")
	repo := &mockAccountRepo{
		UsernameExistsFunc: func(context.Context, string) (bool, error) { return false, cause },
	}

	_, err := newService(repo).CreateAccount(context.Background(), aliceSmith())
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.ErrorIs(t, err, cause)
}

func TestCreateAccount_Validation(t *testing.T) {
	repo := &mockAccountRepo{}

	_, err := newService(repo).CreateAccount(context.Background(),
		models.NewAccount{FirstName: "Alice", LastName: "Smith", Password: "123"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateAccount_SecretOverBcryptLimit(t *testing.T) {
	repo := &mockAccountRepo{}

	in := aliceSmith()
	in.Password = strings.Repeat("a", models.MaxSecretBytes+1)
	_, err := newService(repo).CreateAccount(context.Background(), in)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NotErrorIs(t, err, common.ErrPersistence)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(repository.NewMemoryAccountRepository())

	created, err := svc.CreateAccount(ctx, aliceSmith())
	require.NoError(t, err)

	acc, err := svc.Authenticate(ctx, created.Username, "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)

	_, wrongSecret := svc.Authenticate(ctx, created.Username, "wrong-secret")
	_, unknownUser := svc.Authenticate(ctx, "nobody.here", "secret123")

	assert.ErrorIs(t, wrongSecret, common.ErrNotFound)
	assert.ErrorIs(t, unknownUser, common.ErrNotFound)
	assert.Equal(t, wrongSecret, unknownUser)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	repo := &mockAccountRepo{
		FindByUsernameFunc: func(context.Context, string) (*models.Account, error) {
			return nil, errors.New("db down")
		},
	}

	_, err := newService(repo).Authenticate(context.Background(), "alice.smith", "secret123")
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(repository.NewMemoryAccountRepository(), service.WithTokenTTL(time.Minute))

	_, err := svc.CreateAccount(ctx, aliceSmith())
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice.smith", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, "alice.smith", res.User.Username)

	sub, ok := token.NewService(testKey).Verify(res.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice.smith", sub)

	_, err = svc.Login(ctx, "alice.smith", "nope-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetAndListAccounts(t *testing.T) {
	ctx := context.Background()
	svc := newService(repository.NewMemoryAccountRepository())

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAccount(ctx, aliceSmith())
		require.NoError(t, err)
	}

	all, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	acc, err := svc.GetAccount(ctx, "alice.smith2")
	require.NoError(t, err)
	assert.Equal(t, "alice.smith2", acc.Username)

	_, err = svc.GetAccount(ctx, "alice.smith3")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListAccounts_StoreFailure(t *testing.T) {
	repo := &mockAccountRepo{
		ListAccountsFunc: func(context.Context) ([]models.Account, error) {
			return nil, errors.New("db down")
		},
	}

	_, err := newService(repo).ListAccounts(context.Background())
	assert.ErrorIs(t, err, common.ErrPersistence)
}
