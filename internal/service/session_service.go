package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/provider/certify"
	"github.com/popeskul/insdr-dispatch/internal/scheduler"
)

type sessionService struct {
	scheduler      *scheduler.Scheduler
	client         certify.API
	circuitBreaker *CircuitBreaker
	logger         *zap.Logger

	mu        sync.RWMutex
	sessionID string
}

// NewSessionService logs into the certification API on Start and again every
// session_refresh_minutes.
func NewSessionService(
	cfg *config.Config,
	client certify.API,
	circuitBreaker *CircuitBreaker,
	logger *zap.Logger,
) SessionService {
	interval := time.Duration(cfg.Certification.SessionRefreshMinutes) * time.Minute

	svc := &sessionService{
		client:         client,
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}

	svc.scheduler = scheduler.NewScheduler("certification-session", logger, interval, svc.refresh)
	return svc
}

func (s *sessionService) Start() error {
	return s.scheduler.Start(context.Background())
}

func (s *sessionService) Stop() error {
	return s.scheduler.Stop()
}

func (s *sessionService) IsRunning() bool {
	return s.scheduler.IsRunning()
}

// SessionID returns the cached session, logging in first when there is none.
func (s *sessionService) SessionID(ctx context.Context) (string, error) {
	s.mu.RLock()
	sessionID := s.sessionID
	s.mu.RUnlock()

	if sessionID != "" {
		return sessionID, nil
	}

	if err := s.refresh(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID, nil
}

// Invalidate drops the cached session so the next call logs in again.
func (s *sessionService) Invalidate() {
	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
}

func (s *sessionService) refresh(ctx context.Context) error {
	var sessionID string
	err := s.circuitBreaker.Execute(ctx, func() error {
		var loginErr error
		sessionID, loginErr = s.client.Login(ctx)
		return loginErr
	})
	if err != nil {
		return fmt.Errorf("certification login: %w", err)
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.mu.Unlock()

	s.logger.Debug("Certification session refreshed")
	return nil
}
