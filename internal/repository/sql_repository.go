package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/martinstankovic2000/budget-app/internal/models"
)

// sortColumns whitelists the expense fields a filter may sort by.
// Anything else is a caller-contract violation.
var sortColumns = map[string]string{
	"id":          "id",
	"description": "description",
	"amount":      "amount",
	"category":    "category",
	"date":        "date",
}

// SQLRepository implements the Repository interface on top of sqlx.
// The SQL is portable across the postgres and sqlite drivers.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new SQL-backed repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password, email, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		user.Username, user.Password, user.Email, user.Balance).Scan(&user.ID)
}

func (r *SQLRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT * FROM users WHERE username = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *SQLRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *SQLRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// Expense repository methods
func (r *SQLRepository) FindExpenseByOwnerAndID(ctx context.Context, username string, id int64) (*models.Expense, error) {
	query := `SELECT * FROM expenses WHERE username = $1 AND id = $2`

	var expense models.Expense
	err := r.db.GetContext(ctx, &expense, query, username, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Expense not found
		}
		return nil, err
	}

	return &expense, nil
}

// CreateExpense debits the owning user's balance and inserts the expense
// row as a single transaction. The conditional balance update serializes
// concurrent debits against the same user: the check and the write are
// one statement, so two overlapping creations cannot both pass a stale
// balance check. The boundary is inclusive; spending the exact balance
// succeeds and leaves it at zero.
func (r *SQLRepository) CreateExpense(ctx context.Context, expense *models.Expense) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = r.debitBalance(ctx, tx, expense.Username, expense.Amount); err != nil {
		return err
	}

	query := `
		INSERT INTO expenses (description, amount, category, username, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		expense.Description, expense.Amount, expense.Category,
		expense.Username, expense.Date).Scan(&expense.ID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateExpense nets the old amount against the new one: only the
// difference is charged (or refunded), so the balance invariant holds
// across updates. The expense keeps its original date.
func (r *SQLRepository) UpdateExpense(ctx context.Context, expense *models.Expense) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var old models.Expense
	err = tx.GetContext(ctx, &old,
		`SELECT * FROM expenses WHERE username = $1 AND id = $2`,
		expense.Username, expense.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrExpenseNotFound
		}
		return err
	}

	delta := expense.Amount - old.Amount
	if err = r.debitBalance(ctx, tx, expense.Username, delta); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses SET description = $1, amount = $2, category = $3 WHERE username = $4 AND id = $5`,
		expense.Description, expense.Amount, expense.Category,
		expense.Username, expense.ID)
	if err != nil {
		return err
	}

	expense.Date = old.Date

	return tx.Commit()
}

// DeleteExpense credits the expense amount back to the owning user and
// removes the expense row, atomically as a pair.
func (r *SQLRepository) DeleteExpense(ctx context.Context, username string, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var amount float64
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM expenses WHERE username = $1 AND id = $2`,
		username, id).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrExpenseNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE username = $2`,
		amount, username)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM expenses WHERE username = $1 AND id = $2`, username, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// debitBalance subtracts amount from the user's balance, guarded so the
// balance never goes negative. A negative amount is a credit and always
// succeeds. On an insufficient balance the current value is read back
// and carried on the returned error.
func (r *SQLRepository) debitBalance(ctx context.Context, tx *sqlx.Tx, username string, amount float64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1 WHERE username = $2 AND balance >= $3`,
		amount, username, amount)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var balance float64
		err = tx.QueryRowContext(ctx,
			`SELECT balance FROM users WHERE username = $1`, username).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrUserNotFound
			}
			return err
		}
		return &models.InsufficientFundsError{Balance: balance}
	}

	return nil
}

// QueryExpenses composes a store query from the filter: the owner
// predicate is always applied, the optional predicates only when their
// field is present. Returns the requested page plus the total count.
func (r *SQLRepository) QueryExpenses(ctx context.Context, filter models.Filter) ([]models.Expense, int64, error) {
	column, order, err := sortClause(filter)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"username = $1"}
	args := []interface{}{filter.Username}

	appendCond := func(cond string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Description != nil {
		appendCond("description = $%d", *filter.Description)
	}
	if filter.Category != nil {
		appendCond("category = $%d", *filter.Category)
	}
	if filter.MinAmount != nil {
		appendCond("amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		appendCond("amount <= $%d", *filter.MaxAmount)
	}
	if filter.StartDate != nil {
		appendCond("date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		appendCond("date <= $%d", *filter.EndDate)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT * FROM expenses WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		whereClause, column, order, len(args)+1, len(args)+2)
	args = append(args, filter.Size, filter.Page*filter.Size)

	var expenses []models.Expense
	err = r.db.SelectContext(ctx, &expenses, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

// sortClause validates the filter's sort field and direction against the
// whitelist. Empty values fall back to newest-first.
func sortClause(filter models.Filter) (string, string, error) {
	field := filter.SortField
	if field == "" {
		field = "date"
	}
	column, ok := sortColumns[field]
	if !ok {
		return "", "", models.ErrInvalidQuery
	}

	switch strings.ToLower(filter.SortOrder) {
	case "", "desc":
		return column, "DESC", nil
	case "asc":
		return column, "ASC", nil
	default:
		return "", "", models.ErrInvalidQuery
	}
}

// SumAmountByCategory totals the user's expense amounts per category
// within the date window. Categories without expenses in the window are
// absent from the result.
func (r *SQLRepository) SumAmountByCategory(ctx context.Context, username string, start, end time.Time) (map[string]float64, error) {
	query := `
		SELECT category, SUM(amount) FROM expenses
		WHERE username = $1 AND date >= $2 AND date <= $3
		GROUP BY category
	`

	rows, err := r.db.QueryContext(ctx, query, username, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		totals[category] = total
	}

	return totals, rows.Err()
}

// Category repository methods
func (r *SQLRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name) VALUES ($1) RETURNING id`

	return r.db.QueryRowContext(ctx, query, category.Name).Scan(&category.ID)
}

func (r *SQLRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Category not found
		}
		return nil, err
	}

	return &category, nil
}

func (r *SQLRepository) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Category not found
		}
		return nil, err
	}

	return &category, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *SQLRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2`, category.Name, category.ID)
	return err
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}
