package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/martinstankovic2000/budget-app/internal/api"
	"github.com/martinstankovic2000/budget-app/internal/config"
	"github.com/martinstankovic2000/budget-app/internal/logger"
	"github.com/martinstankovic2000/budget-app/internal/repository"
	"github.com/martinstankovic2000/budget-app/internal/service"
	"github.com/martinstankovic2000/budget-app/internal/session"
)

func main() {
	log := logger.New(slog.LevelInfo)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Error("failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewSQLRepository(db)

	// Create session tracker and service
	sessions := session.NewTracker()
	svc := service.NewDefaultService(repo, sessions, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()

	router.Use(api.RequestIDMiddleware(log))

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("starting server", "addr", serverAddr, "db_driver", cfg.Database.Driver)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
