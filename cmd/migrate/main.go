package main

import (
	"database/sql"
	"flag"
	"fmt"

	"ms-approvals/internal/config"
	"ms-approvals/internal/database/migrations"
	"ms-approvals/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func main() {
	command := flag.String("command", "up", "migration command: up, down, to, version")
	version := flag.Uint("version", 0, "target version for the 'to' command")
	flag.Parse()

	logger := logger.NewLogger()
	defer logger.Close()

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(bun.NewDB(sqldb, pgdialect.New()), migrations.MigrateOptions{
		MigrationsDir: cfg.Migrations.Dir,
	}, logger)
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Error("MIGRATION", err.Error())
		}
	}()

	switch *command {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "to":
		err = runner.MigrateTo(*version)
	case "version":
		var current uint
		current, err = runner.Version()
		if err == nil {
			logger.Info("MIGRATION", fmt.Sprintf("Current schema version: %d", current))
		}
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}

	if err != nil {
		logger.Error("MIGRATION", fmt.Sprintf("Migration %s failed: %v", *command, err))
		return
	}
	logger.Info("MIGRATION", fmt.Sprintf("✅ Migration %s complete", *command))
}
