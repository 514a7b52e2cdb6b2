package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/martinstankovic2000/budget-app/internal/config"
	"github.com/martinstankovic2000/budget-app/internal/logger"
	"github.com/martinstankovic2000/budget-app/internal/models"
	"github.com/martinstankovic2000/budget-app/internal/repository"
	"github.com/martinstankovic2000/budget-app/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*DefaultService, *repository.SQLRepository) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "failed to set up test database")
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)
	svc := NewDefaultService(repo, session.NewTracker(), logger.New(slog.LevelError), "test-secret", time.Hour)

	return svc, repo
}

func registerUser(t *testing.T, svc *DefaultService, username string, balance float64) {
	t.Helper()

	err := svc.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Password: "correct-horse",
		Email:    username + "@example.com",
		Balance:  balance,
	})
	require.NoError(t, err)
}

func balanceOf(t *testing.T, repo *repository.SQLRepository, username string) float64 {
	t.Helper()

	user, err := repo.FindUserByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.Balance
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	err := svc.Register(ctx, models.RegisterRequest{
		Username: "alice",
		Password: "another-pass",
		Email:    "other@example.com",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)

	err = svc.Register(ctx, models.RegisterRequest{
		Username: "alice2",
		Password: "another-pass",
		Email:    "alice@example.com",
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestLoginLogoutFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	// Wrong password leaves the session state untouched
	_, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	resp, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Token)

	// A second login while the session is active is rejected
	_, err = svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "correct-horse"})
	assert.ErrorIs(t, err, models.ErrAlreadyLoggedIn)

	// Registering a new account while logged in is rejected too
	err = svc.Register(ctx, models.RegisterRequest{
		Username: "alice",
		Password: "new-password",
		Email:    "new@example.com",
	})
	assert.ErrorIs(t, err, models.ErrAlreadyLoggedIn)

	// Logout is idempotent
	svc.Logout(ctx, "alice")
	svc.Logout(ctx, "alice")

	_, err = svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestLedgerScenario(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	_, err := svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "groceries",
		Amount:      40.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, balanceOf(t, repo, "alice"))

	_, err = svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "concert",
		Amount:      70.0,
		Category:    "Fun",
		Username:    "alice",
	})

	var insufficient *models.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 60.0, insufficient.Balance)
	assert.Equal(t, 60.0, balanceOf(t, repo, "alice"))
}

func TestCreateExpenseUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateExpense(context.Background(), models.ExpenseRequest{
		Description: "groceries",
		Amount:      10.0,
		Category:    "Food",
		Username:    "ghost",
	})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestCreateExpenseRoundTripAndServerStampedDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	fixedNow := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixedNow }

	created, err := svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "groceries",
		Amount:      40.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)

	fetched, err := svc.GetExpense(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", fetched.Description)
	assert.Equal(t, 40.0, fetched.Amount)
	assert.Equal(t, "Food", fetched.Category)
	assert.True(t, fetched.Date.Equal(date(2024, time.March, 15)),
		"expense date is stamped at creation time")
}

func TestGetExpenseScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)
	registerUser(t, svc, "bob", 100.0)

	created, err := svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "groceries",
		Amount:      40.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)

	_, err = svc.GetExpense(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, models.ErrExpenseNotFound)
}

func TestUpdateExpenseKeepsInvariant(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	created, err := svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "groceries",
		Amount:      40.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)

	// balance = 100 − 40 = 60; after the update it must be 100 − 55 = 45
	updated, err := svc.UpdateExpense(ctx, models.ExpenseRequest{
		ID:          created.ID,
		Description: "groceries and wine",
		Amount:      55.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 55.0, updated.Amount)
	assert.Equal(t, 45.0, balanceOf(t, repo, "alice"))
}

func TestDeleteExpenseRestoresBalance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	created, err := svc.CreateExpense(ctx, models.ExpenseRequest{
		Description: "groceries",
		Amount:      40.0,
		Category:    "Food",
		Username:    "alice",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, "alice", created.ID))
	assert.Equal(t, 100.0, balanceOf(t, repo, "alice"))

	err = svc.DeleteExpense(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, models.ErrExpenseNotFound)
}

func TestListExpensesValidatesPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	_, err := svc.ListExpenses(ctx, models.Filter{Username: "alice", Page: -1, Size: 10})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)

	_, err = svc.ListExpenses(ctx, models.Filter{Username: "alice", Page: 0, Size: 0})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)

	page, err := svc.ListExpenses(ctx, models.Filter{Username: "alice", Page: 0, Size: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Content)
	assert.EqualValues(t, 0, page.TotalElements)
	assert.EqualValues(t, 0, page.TotalPages)
}

func TestAggregateDataByPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	for _, amount := range []float64{20.0, 5.0} {
		_, err := svc.CreateExpense(ctx, models.ExpenseRequest{
			Description: "food run",
			Amount:      amount,
			Category:    "Food",
			Username:    "alice",
		})
		require.NoError(t, err)
	}

	totals, err := svc.AggregateDataByPeriod(ctx, "alice", PeriodLastMonth)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Food": 25.0}, totals)
}

// storeSpy fails the test by panicking if any repository method other
// than the overridden one is reached.
type storeSpy struct {
	repository.Repository
	sumCalls int
}

func (s *storeSpy) SumAmountByCategory(ctx context.Context, username string, start, end time.Time) (map[string]float64, error) {
	s.sumCalls++
	return map[string]float64{}, nil
}

func TestAggregateInvalidPeriodDoesNotTouchStore(t *testing.T) {
	spy := &storeSpy{}
	svc := NewDefaultService(spy, session.NewTracker(), logger.New(slog.LevelError), "test-secret", time.Hour)

	_, err := svc.AggregateDataByPeriod(context.Background(), "alice", "banana")
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
	assert.Zero(t, spy.sumCalls)
}

func TestConcurrentCreatesCannotOverdraw(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", 100.0)

	const attempts = 2
	results := make(chan error, attempts)
	var wg sync.WaitGroup

	// Both creations equal the full balance; at most one may succeed
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateExpense(ctx, models.ExpenseRequest{
				Description: "everything at once",
				Amount:      100.0,
				Category:    "Fun",
				Username:    "alice",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			var insufficient *models.InsufficientFundsError
			require.ErrorAs(t, err, &insufficient)
			failures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 0.0, balanceOf(t, repo, "alice"))
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, models.CategoryRequest{Name: "Food"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = svc.CreateCategory(ctx, models.CategoryRequest{Name: "Food"})
	assert.ErrorIs(t, err, models.ErrDuplicateCategory)

	updated, err := svc.UpdateCategory(ctx, models.CategoryRequest{ID: created.ID, Name: "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)

	_, err = svc.UpdateCategory(ctx, models.CategoryRequest{ID: 9999, Name: "Nope"})
	assert.ErrorIs(t, err, models.ErrCategoryNotFound)

	require.NoError(t, svc.DeleteCategory(ctx, created.ID))
	err = svc.DeleteCategory(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrCategoryNotFound)
}
