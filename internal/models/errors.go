package models

import (
	"errors"
	"fmt"
)

// Domain errors. Each maps to a distinct HTTP status in the API layer;
// none are retried internally.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrAlreadyLoggedIn   = errors.New("user is already logged in")
	ErrUnauthenticated   = errors.New("invalid username or password")
	ErrInvalidPeriod     = errors.New("invalid aggregation period")
	ErrInvalidQuery      = errors.New("invalid filter query")
)

// InsufficientFundsError is returned when a debit would overdraw the
// user's balance. It carries the balance observed at the time of the
// failed check.
type InsufficientFundsError struct {
	Balance float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance %.2f", e.Balance)
}
