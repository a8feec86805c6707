// Package service provides business logic implementation for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/config"
)

type CircuitBreaker struct {
	name         string
	cb           *gobreaker.TwoStepCircuitBreaker
	isSuccessful func(error) bool
	logger       *zap.Logger
}

// NewCircuitBreaker builds a named breaker. isSuccessful classifies errors that
// must not count against the upstream; nil counts every error as a failure.
func NewCircuitBreaker(name string, cfg *config.CircuitBreakerConfig, logger *zap.Logger, isSuccessful func(error) bool) *CircuitBreaker {
	if isSuccessful == nil {
		isSuccessful = func(err error) bool {
			return err == nil
		}
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.ConsecutiveFails && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &CircuitBreaker{
		name:         name,
		cb:           gobreaker.NewTwoStepCircuitBreaker(settings),
		isSuccessful: isSuccessful,
		logger:       logger,
	}
}

// Execute runs the given function through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) (err error) {
	done, allowErr := cb.cb.Allow()
	if allowErr != nil {
		return cb.unavailable(allowErr)
	}

	defer func() {
		if e := recover(); e != nil {
			done(false)
			panic(e)
		}
	}()

	select {
	case <-ctx.Done():
		err = ctx.Err()
	default:
		err = fn()
	}
	done(cb.isSuccessful(err))

	return err
}

// Ready reports ErrServiceUnavailable while the breaker is open.
func (cb *CircuitBreaker) Ready() error {
	if cb.cb.State() == gobreaker.StateOpen {
		return cb.unavailable(gobreaker.ErrOpenState)
	}
	return nil
}

// Observe always runs fn and records its result when the breaker admits the call.
func (cb *CircuitBreaker) Observe(fn func() error) error {
	done, allowErr := cb.cb.Allow()
	err := fn()
	if allowErr == nil {
		done(cb.isSuccessful(err))
	}
	return err
}

func (cb *CircuitBreaker) unavailable(err error) error {
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		cb.logger.Warn("Circuit breaker: too many requests", zap.String("name", cb.name))
		return fmt.Errorf("%w: %s too many requests", ErrServiceUnavailable, cb.name)
	}
	cb.logger.Warn("Circuit breaker is open, request blocked", zap.String("name", cb.name))
	return fmt.Errorf("%w: %s circuit breaker is open", ErrServiceUnavailable, cb.name)
}

// GetState returns the current state of the circuit breaker.
func (cb *CircuitBreaker) GetState() api.CircuitBreakerState {
	switch cb.cb.State() {
	case gobreaker.StateHalfOpen:
		return api.HalfOpen
	case gobreaker.StateOpen:
		return api.Open
	default:
		return api.Closed
	}
}

// GetCounts returns the current counts of the circuit breaker.
func (cb *CircuitBreaker) GetCounts() (requests, failures uint32) {
	counts := cb.cb.Counts()
	return counts.Requests, counts.TotalFailures
}
