package models

import (
	"time"
)

// User represents a registered user and their spending balance
type User struct {
	ID       int64   `db:"id" json:"id"`
	Username string  `db:"username" json:"username"`
	Password string  `db:"password" json:"-"` // Password hash, not returned in JSON
	Email    string  `db:"email" json:"email"`
	Balance  float64 `db:"balance" json:"balance"`
}

// Expense represents a single recorded expense owned by one user
type Expense struct {
	ID          int64     `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Username    string    `db:"username" json:"username"`
	Date        time.Time `db:"date" json:"date"`
}

// Category represents an expense category label
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Filter describes the criteria for querying a user's expenses.
// Optional fields are pointers; nil means the predicate is not applied.
// Username is always set server-side from the authenticated request.
type Filter struct {
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	MinAmount   *float64   `json:"minAmount"`
	MaxAmount   *float64   `json:"maxAmount"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Username    string     `json:"-"`
	Page        int        `json:"page"`
	Size        int        `json:"size"`
	SortField   string     `json:"sortField"`
	SortOrder   string     `json:"sortOrder"`
}
