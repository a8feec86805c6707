package service

import (
	"context"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

type DispatchService interface {
	SendBatch(ctx context.Context, req BatchRequest) (*models.BatchResult, error)
	GetHistory(ctx context.Context, actor string, page, limit int) (*api.SendLogListResponse, error)
	GetCircuitBreakerStatus() (state api.CircuitBreakerState, requests uint32, failures uint32)
}

type CreditService interface {
	GetCredits(ctx context.Context, actor string) (*api.CreditsResponse, error)
	SetCredits(ctx context.Context, actor string, credits map[string]int) (*api.CreditsResponse, error)
}

type DepositService interface {
	SubmitDeposit(ctx context.Context, req *models.DepositRequest) (*models.DepositResult, error)
	GetCircuitBreakerState() api.CircuitBreakerState
}

// SessionService keeps a certification API session warm in the background.
type SessionService interface {
	Start() error
	Stop() error
	IsRunning() bool
	SessionID(ctx context.Context) (string, error)
	Invalidate()
}

type HealthService interface {
	GetHealth(ctx context.Context) *HealthStatus
}
