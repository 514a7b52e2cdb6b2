package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/martinstankovic2000/budget-app/internal/logger"
	"github.com/martinstankovic2000/budget-app/internal/models"
	"github.com/martinstankovic2000/budget-app/internal/repository"
	"github.com/martinstankovic2000/budget-app/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Register(ctx context.Context, req models.RegisterRequest) error
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, username string)

	// Expense operations
	GetExpense(ctx context.Context, username string, id int64) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter models.Filter) (*models.ExpensePage, error)
	CreateExpense(ctx context.Context, req models.ExpenseRequest) (*models.Expense, error)
	UpdateExpense(ctx context.Context, req models.ExpenseRequest) (*models.Expense, error)
	DeleteExpense(ctx context.Context, username string, id int64) error
	AggregateDataByPeriod(ctx context.Context, username, period string) (map[string]float64, error)

	// Category operations
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	sessions      *session.Tracker
	log           *logger.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, sessions *session.Tracker, log *logger.Logger, jwtSecret string, tokenDuration time.Duration) *DefaultService {
	return &DefaultService{
		repo:          repo,
		sessions:      sessions,
		log:           log.WithComponent("service"),
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Authentication methods

// Register creates a new user with the caller-supplied starting balance.
// A username with an active session must log out first; username and
// email must be unique across the store.
func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) error {
	if s.sessions.IsLoggedIn(req.Username) {
		return models.ErrAlreadyLoggedIn
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return fmt.Errorf("error checking username existence: %w", err)
	}
	if exists {
		return models.ErrDuplicateUsername
	}

	exists, err = s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("error checking email existence: %w", err)
	}
	if exists {
		return models.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Balance:  req.Balance,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	s.sessions.Track(user.Username)
	s.log.Info("user registered", "username", user.Username)

	return nil
}

// Login verifies the credentials and begins a session. The logged-in
// check and the state transition are a single atomic operation on the
// tracker, so two concurrent logins cannot both succeed.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if s.sessions.IsLoggedIn(req.Username) {
		return nil, models.ErrAlreadyLoggedIn
	}

	user, err := s.repo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.ErrUnauthenticated
	}

	if !s.sessions.BeginSession(user.Username) {
		return nil, models.ErrAlreadyLoggedIn
	}

	token, err := s.generateJWT(user)
	if err != nil {
		s.sessions.EndSession(user.Username)
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.log.Info("user logged in", "username", user.Username)

	return &models.AuthResponse{
		Status:    "success",
		Username:  user.Username,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Logout ends the session regardless of its prior state, so calling it
// twice in a row is harmless.
func (s *DefaultService) Logout(ctx context.Context, username string) {
	s.sessions.EndSession(username)
	s.log.Info("user logged out", "username", username)
}

// Expense operations

func (s *DefaultService) GetExpense(ctx context.Context, username string, id int64) (*models.Expense, error) {
	expense, err := s.repo.FindExpenseByOwnerAndID(ctx, username, id)
	if err != nil {
		return nil, fmt.Errorf("error getting expense: %w", err)
	}
	if expense == nil {
		return nil, models.ErrExpenseNotFound
	}

	return expense, nil
}

// ListExpenses returns one page of the user's expenses matching the
// filter, with total-count metadata.
func (s *DefaultService) ListExpenses(ctx context.Context, filter models.Filter) (*models.ExpensePage, error) {
	if filter.Page < 0 || filter.Size <= 0 {
		return nil, models.ErrInvalidQuery
	}

	expenses, total, err := s.repo.QueryExpenses(ctx, filter)
	if err != nil {
		if errors.Is(err, models.ErrInvalidQuery) {
			return nil, err
		}
		return nil, fmt.Errorf("error querying expenses: %w", err)
	}

	if expenses == nil {
		expenses = []models.Expense{}
	}

	return &models.ExpensePage{
		Content:       expenses,
		TotalElements: total,
		TotalPages:    int64(math.Ceil(float64(total) / float64(filter.Size))),
		Page:          filter.Page,
		Size:          filter.Size,
	}, nil
}

// CreateExpense records a new expense for the owning user, deducting the
// amount from their balance. The expense is stamped with the current
// date; any caller-supplied date is ignored.
func (s *DefaultService) CreateExpense(ctx context.Context, req models.ExpenseRequest) (*models.Expense, error) {
	user, err := s.repo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	expense := &models.Expense{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Username:    req.Username,
		Date:        dateOnly(s.now()),
	}

	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.log.Info("expense created",
		"username", expense.Username, "id", expense.ID, "amount", expense.Amount)

	return expense, nil
}

// UpdateExpense overwrites an existing expense owned by the user. Only
// the difference between the new and old amount is charged against the
// balance.
func (s *DefaultService) UpdateExpense(ctx context.Context, req models.ExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{
		ID:          req.ID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Username:    req.Username,
	}

	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.log.Info("expense updated",
		"username", expense.Username, "id", expense.ID, "amount", expense.Amount)

	return expense, nil
}

// DeleteExpense removes an expense and credits its amount back to the
// owning user's balance.
func (s *DefaultService) DeleteExpense(ctx context.Context, username string, id int64) error {
	if err := s.repo.DeleteExpense(ctx, username, id); err != nil {
		return err
	}

	s.log.Info("expense deleted", "username", username, "id", id)

	return nil
}

// AggregateDataByPeriod resolves the period keyword into a date window
// and sums the user's expense amounts per category within it. An
// unrecognized keyword fails before the store is touched.
func (s *DefaultService) AggregateDataByPeriod(ctx context.Context, username, period string) (map[string]float64, error) {
	start, end, err := periodWindow(period, s.now())
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SumAmountByCategory(ctx, username, start, end)
	if err != nil {
		return nil, fmt.Errorf("error aggregating expenses: %w", err)
	}

	return totals, nil
}

// Category operations

func (s *DefaultService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting category: %w", err)
	}
	if category == nil {
		return nil, models.ErrCategoryNotFound
	}

	return category, nil
}

func (s *DefaultService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	return categories, nil
}

func (s *DefaultService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	existing, err := s.repo.GetCategoryByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("error checking category existence: %w", err)
	}
	if existing != nil {
		return nil, models.ErrDuplicateCategory
	}

	category := &models.Category{Name: req.Name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}

	return category, nil
}

func (s *DefaultService) UpdateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	existing, err := s.repo.GetCategoryByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting category: %w", err)
	}
	if existing == nil {
		return nil, models.ErrCategoryNotFound
	}

	category := &models.Category{ID: req.ID, Name: req.Name}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("error updating category: %w", err)
	}

	return category, nil
}

func (s *DefaultService) DeleteCategory(ctx context.Context, id int64) error {
	existing, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting category: %w", err)
	}
	if existing == nil {
		return models.ErrCategoryNotFound
	}

	return s.repo.DeleteCategory(ctx, id)
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.Username, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
