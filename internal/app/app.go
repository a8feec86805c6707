// Package app connects the stores and providers named in the configuration
// and builds the service layer on top of them.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/cache"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/events"
	"github.com/popeskul/insdr-dispatch/internal/infrastructure/migrate"
	"github.com/popeskul/insdr-dispatch/internal/provider/certify"
	"github.com/popeskul/insdr-dispatch/internal/provider/geocode"
	"github.com/popeskul/insdr-dispatch/internal/provider/sms"
	"github.com/popeskul/insdr-dispatch/internal/repository"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

type App struct {
	Config        *config.Config
	Service       *service.Service
	Index         cache.MessageIndex
	Authenticator auth.Authenticator

	db        *sqlx.DB
	redis     *redis.Client
	publisher events.Publisher
	logger    *zap.Logger
}

// New opens every connection and returns the wired application. Close must
// be called once the caller is done with it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Database.AutoMigrate {
		runner := migrate.NewRunner(&migrate.Config{
			DatabaseURL:    cfg.Database.GetURL(),
			MigrationsPath: cfg.Database.MigrationsPath,
		}, logger)
		if _, err := runner.Up(); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	a := &App{
		Config: cfg,
		db:     db,
		logger: logger,
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	sender, err := sms.NewSender(cfg.SMS, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.publisher, err = events.NewPublisher(cfg.Events, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Index = cache.NewRedisMessageIndex(a.redis, time.Duration(cfg.Redis.CacheTTL)*time.Hour)
	a.Authenticator = auth.NewAuthenticator(cfg.Auth)

	a.Service = service.NewService(cfg, service.Dependencies{
		Repo:          repository.NewRepository(db),
		Index:         a.Index,
		Sender:        sender,
		Geocoder:      geocode.NewClient(cfg.Geocoding),
		Certifier:     certify.NewClient(cfg.Certification),
		Publisher:     a.publisher,
		Authenticator: a.Authenticator,
	}, logger)

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database connection", zap.Error(err))
	}
}
