package models

// Request models
type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    string  `json:"email" binding:"required,email"`
	Balance  float64 `json:"balance" binding:"gte=0"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	Username string `json:"username" binding:"required"`
}

// ExpenseRequest carries the caller-supplied expense fields. ID is only
// meaningful on update. Username is injected from the authenticated
// request, never read from the body.
type ExpenseRequest struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
	Username    string  `json:"-"`
}

type CategoryRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ExpensePage is one page of a filtered expense query plus the metadata
// callers need to compute total pages.
type ExpensePage struct {
	Content       []Expense `json:"content"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int64     `json:"totalPages"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
