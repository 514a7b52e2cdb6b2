package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/martinstankovic2000/budget-app/internal/models"
	"github.com/martinstankovic2000/budget-app/internal/service"
)

// Handler holds the service and exposes the HTTP endpoints
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all routes on the router. Expense and category
// routes require authentication; register, login and logout do not.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	authed := api.Group("", AuthMiddleware())
	authed.GET("/expense/:id", h.GetExpense)
	authed.POST("/expense", h.CreateExpense)
	authed.PUT("/expense", h.UpdateExpense)
	authed.DELETE("/expense/:id", h.DeleteExpense)
	authed.POST("/expense/filter", h.ListExpenses)
	authed.GET("/expense/total", h.AggregateDataByPeriod)

	authed.GET("/category/:id", h.GetCategory)
	authed.GET("/category", h.ListCategories)
	authed.POST("/category", h.CreateCategory)
	authed.PUT("/category", h.UpdateCategory)
	authed.DELETE("/category/:id", h.DeleteCategory)
}

// Authentication handlers

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.Register(c.Request.Context(), req); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "User registered successfully",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	var req models.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.svc.Logout(c.Request.Context(), req.Username)

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Logout successful",
	})
}

// Expense handlers

func (h *Handler) GetExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	expense, err := h.svc.GetExpense(c.Request.Context(), c.GetString("username"), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Username = c.GetString("username")

	expense, err := h.svc.CreateExpense(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Username = c.GetString("username")

	expense, err := h.svc.UpdateExpense(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.DeleteExpense(c.Request.Context(), c.GetString("username"), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Expense deleted successfully",
	})
}

func (h *Handler) ListExpenses(c *gin.Context) {
	var filter models.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		badRequest(c, err)
		return
	}
	filter.Username = c.GetString("username")

	page, err := h.svc.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) AggregateDataByPeriod(c *gin.Context) {
	period := c.Query("period")

	totals, err := h.svc.AggregateDataByPeriod(c.Request.Context(), c.GetString("username"), period)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

// Category handlers

func (h *Handler) GetCategory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.svc.GetCategory(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	if categories == nil {
		categories = []models.Category{}
	}

	c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.svc.UpdateCategory(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.DeleteCategory(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Category deleted successfully",
	})
}

// Helpers

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// errorResponse maps domain errors to their HTTP status and stable code
func errorResponse(c *gin.Context, err error) {
	var insufficientFunds *models.InsufficientFundsError

	switch {
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrExpenseNotFound),
		errors.Is(err, models.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case errors.Is(err, models.ErrDuplicateUsername),
		errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrDuplicateCategory):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "DUPLICATE", Message: err.Error(),
		})
	case errors.Is(err, models.ErrAlreadyLoggedIn):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "ALREADY_LOGGED_IN", Message: err.Error(),
		})
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "UNAUTHENTICATED", Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INVALID_PERIOD", Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INVALID_QUERY", Message: err.Error(),
		})
	case errors.As(err, &insufficientFunds):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "INSUFFICIENT_FUNDS", Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL_ERROR", Message: "internal server error",
		})
	}
}
