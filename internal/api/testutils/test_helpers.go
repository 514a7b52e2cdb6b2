package testutils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/martinstankovic2000/budget-app/internal/api"
	"github.com/martinstankovic2000/budget-app/internal/config"
	"github.com/martinstankovic2000/budget-app/internal/logger"
	"github.com/martinstankovic2000/budget-app/internal/models"
	"github.com/martinstankovic2000/budget-app/internal/repository"
	"github.com/martinstankovic2000/budget-app/internal/service"
	"github.com/martinstankovic2000/budget-app/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository *repository.SQLRepository
	Service    service.Service
	Sessions   *session.Tracker
	DB         *sqlx.DB
}

// SetupTestContext creates a new test context backed by a throwaway
// sqlite database, so the tests need no external services.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.TokenTTL = time.Hour

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "failed to set up test database")
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)
	sessions := session.NewTracker()
	log := logger.New(slog.LevelError)
	svc := service.NewDefaultService(repo, sessions, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Sessions:   sessions,
		DB:         db,
	}
}

// PerformRequest executes an HTTP request against the router and
// returns the recorded response.
func PerformRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns the Authorization header for a bearer token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

// RegisterUser registers a user through the API with the given starting balance
func RegisterUser(t *testing.T, tc *TestContext, username string, balance float64) {
	t.Helper()

	w := PerformRequest(tc.Router, http.MethodPost, "/api/register", models.RegisterRequest{
		Username: username,
		Password: "correct-horse",
		Email:    username + "@example.com",
		Balance:  balance,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "registration failed: %s", w.Body.String())
}

// Login logs the user in through the API and returns the issued token
func Login(t *testing.T, tc *TestContext, username string) string {
	t.Helper()

	w := PerformRequest(tc.Router, http.MethodPost, "/api/login", models.LoginRequest{
		Username: username,
		Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var resp models.AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	return resp.Token
}

// RegisterAndLogin registers a fresh user and returns a valid token
func RegisterAndLogin(t *testing.T, tc *TestContext, username string, balance float64) string {
	t.Helper()

	RegisterUser(t, tc, username, balance)
	return Login(t, tc, username)
}
