// Package main implements the database migration utility for the insdr-dispatch service.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/infrastructure/migrate"
)

const defaultMigrateSteps = 1

func main() {
	var (
		configPath     string
		migrationsPath string
		steps          int
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (defaults to database.migrations_path)")
	flag.IntVar(&steps, "steps", defaultMigrateSteps, "Number of migrations to roll back with down")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	args := flag.Args()
	if len(args) == 0 {
		logger.Fatal("Please specify a command: up, down, or version")
	}
	command := args[0]

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" || migrationsPath == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		if databaseURL == "" {
			databaseURL = cfg.Database.GetURL()
		}
		if migrationsPath == "" {
			migrationsPath = cfg.Database.MigrationsPath
		}
	}

	runner := migrate.NewRunner(&migrate.Config{
		DatabaseURL:    databaseURL,
		MigrationsPath: migrationsPath,
	}, logger)

	var status migrate.Status
	switch command {
	case "up":
		status, err = runner.Up()
	case "down":
		status, err = runner.Steps(-steps)
	case "version":
		status, err = runner.Version()
	default:
		logger.Fatal("Unknown command, use 'up', 'down', or 'version'", zap.String("command", command))
	}
	if err != nil {
		logger.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}

	if status.Dirty {
		fmt.Printf("Current version: %d (dirty)\n", status.Version)
	} else {
		fmt.Printf("Current version: %d\n", status.Version)
	}
}
