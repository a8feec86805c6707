package repository

import (
	"context"

	"github.com/popeskul/insdr-dispatch/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	// SendLog returns the send log repository
	SendLog() SendLogRepository

	// Credit returns the credit balance repository
	Credit() CreditRepository
}

// SendLogRepository is the append-only store of send attempts.
type SendLogRepository interface {
	Create(ctx context.Context, entry *models.SendLog) error
	List(ctx context.Context, filter models.LogFilter) ([]*models.SendLog, error)
	Count(ctx context.Context, actor string) (int64, error)
}

// CreditRepository stores per-actor SMS quotas.
type CreditRepository interface {
	Get(ctx context.Context, actor string) (int, error)
	List(ctx context.Context) ([]models.CreditBalance, error)
	Total(ctx context.Context) (int, error)
	SetMany(ctx context.Context, credits map[string]int) error
	Decrement(ctx context.Context, actor string) error
}
