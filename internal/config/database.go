package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// SetupDatabase initializes the database connection for the configured
// driver and creates the schema if it is missing.
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	driver := cfg.Database.Driver

	if driver == "sqlite" {
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "sqlite" {
		// modernc.org/sqlite serializes writers; a single connection
		// avoids SQLITE_BUSY under concurrent transactions.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := createTables(db, driver); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB, driver string) error {
	idColumn := "BIGSERIAL PRIMARY KEY"
	amountType := "DOUBLE PRECISION"
	if driver == "sqlite" {
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
		amountType = "REAL"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %s,
				username VARCHAR(255) UNIQUE NOT NULL,
				password VARCHAR(255) NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				balance %s NOT NULL
			)
		`, idColumn, amountType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS expenses (
				id %s,
				description TEXT NOT NULL,
				amount %s NOT NULL,
				category VARCHAR(255) NOT NULL,
				username VARCHAR(255) NOT NULL REFERENCES users(username),
				date TIMESTAMP NOT NULL
			)
		`, idColumn, amountType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS categories (
				id %s,
				name VARCHAR(255) UNIQUE NOT NULL
			)
		`, idColumn),
		"CREATE INDEX IF NOT EXISTS idx_expenses_username ON expenses(username)",
		"CREATE INDEX IF NOT EXISTS idx_expenses_username_date ON expenses(username, date)",
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
