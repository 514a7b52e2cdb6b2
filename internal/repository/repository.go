package repository

import (
	"context"
	"time"

	"github.com/martinstankovic2000/budget-app/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Expense operations. Create, update and delete adjust the owning
	// user's balance and the expense row in a single transaction.
	FindExpenseByOwnerAndID(ctx context.Context, username string, id int64) (*models.Expense, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, username string, id int64) error
	QueryExpenses(ctx context.Context, filter models.Filter) ([]models.Expense, int64, error)
	SumAmountByCategory(ctx context.Context, username string, start, end time.Time) (map[string]float64, error)

	// Category operations
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}
