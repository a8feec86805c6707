package service

import (
	"context"
	"fmt"
	"time"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/cache"
	"github.com/popeskul/insdr-dispatch/internal/repository"
)

const pingTimeout = 2 * time.Second

type healthService struct {
	repo            repository.Repository
	index           cache.MessageIndex
	sessionService  SessionService
	dispatchService DispatchService
	depositService  DepositService
}

func NewHealthService(
	repo repository.Repository,
	index cache.MessageIndex,
	sessionService SessionService,
	dispatchService DispatchService,
	depositService DepositService,
) HealthService {
	return &healthService{
		repo:            repo,
		index:           index,
		sessionService:  sessionService,
		dispatchService: dispatchService,
		depositService:  depositService,
	}
}

// GetHealth is unhealthy when a store is unreachable and degraded when an
// upstream circuit breaker is open.
func (s *healthService) GetHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status: api.Healthy,
	}

	if s.sessionService.IsRunning() {
		status.SessionStatus = api.HealthResponseSessionStatusRunning
	} else {
		status.SessionStatus = api.HealthResponseSessionStatusStopped
	}

	status.DatabaseStatus = s.checkDatabaseHealth()
	status.RedisStatus = s.checkRedisHealth(ctx)

	state, requests, failures := s.dispatchService.GetCircuitBreakerStatus()
	status.SMSCircuitBreakerState = state
	if requests > 0 {
		failureRate := float64(failures) / float64(requests) * 100
		status.CircuitBreakerStatus = fmt.Sprintf("Requests: %d, Failures: %d (%.1f%%)", requests, failures, failureRate)
	} else {
		status.CircuitBreakerStatus = "No requests yet"
	}

	status.CertificationCircuitState = s.depositService.GetCircuitBreakerState()

	switch {
	case status.DatabaseStatus != api.HealthResponseDatabaseStatusConnected,
		status.RedisStatus != api.HealthResponseRedisStatusConnected:
		status.Status = api.Unhealthy
	case status.SMSCircuitBreakerState == api.Open,
		status.CertificationCircuitState == api.Open:
		status.Status = api.Degraded
	}

	return status
}

func (s *healthService) checkDatabaseHealth() api.HealthResponseDatabaseStatus {
	if err := s.repo.Ping(); err != nil {
		return api.HealthResponseDatabaseStatusDisconnected
	}
	return api.HealthResponseDatabaseStatusConnected
}

func (s *healthService) checkRedisHealth(ctx context.Context) api.HealthResponseRedisStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.index.Ping(ctx); err != nil {
		return api.HealthResponseRedisStatusDisconnected
	}
	return api.HealthResponseRedisStatusConnected
}
