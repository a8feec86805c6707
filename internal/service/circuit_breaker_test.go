package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/provider/sms"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

func newTestBreaker(timeout int, isSuccessful func(error) bool) *service.CircuitBreaker {
	cfg := &config.CircuitBreakerConfig{
		MaxRequests:      3,
		Interval:         10,
		Timeout:          timeout,
		FailureRatio:     0.5,
		ConsecutiveFails: 3,
	}
	return service.NewCircuitBreaker("sms", cfg, zap.NewNop(), isSuccessful)
}

func TestCircuitBreaker_Execute(t *testing.T) {
	tests := []struct {
		name           string
		setupFunc      func(*service.CircuitBreaker)
		cancelContext  bool
		function       func() error
		expectedErrMsg string
		expectedError  error
	}{
		{
			name: "success",
			function: func() error {
				return nil
			},
		},
		{
			name: "function returns error",
			function: func() error {
				return errors.New("test error")
			},
			expectedErrMsg: "test error",
		},
		{
			name:          "context cancelled",
			cancelContext: true,
			function: func() error {
				return nil
			},
			expectedError: context.Canceled,
		},
		{
			name: "circuit breaker open",
			setupFunc: func(cb *service.CircuitBreaker) {
				for i := 0; i < 10; i++ {
					_ = cb.Execute(context.Background(), func() error {
						return errors.New("failure")
					})
				}
			},
			function: func() error {
				return nil
			},
			expectedErrMsg: "service unavailable: sms circuit breaker is open",
			expectedError:  service.ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := newTestBreaker(60, nil)
			if tt.setupFunc != nil {
				tt.setupFunc(cb)
			}

			ctx := context.Background()
			if tt.cancelContext {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			err := cb.Execute(ctx, tt.function)
			if tt.expectedErrMsg == "" && tt.expectedError == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			if tt.expectedErrMsg != "" {
				assert.Equal(t, tt.expectedErrMsg, err.Error())
			}
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			}
		})
	}
}

func TestCircuitBreaker_RejectionsDoNotTrip(t *testing.T) {
	cb := newTestBreaker(60, func(err error) bool {
		return err == nil || sms.IsRejection(err)
	})

	rejection := &sms.ProviderError{Provider: "twilio", StatusCode: 400, Code: 21211, Message: "Invalid 'To' Phone Number"}
	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func() error {
			return rejection
		})
		assert.ErrorIs(t, err, rejection)
	}

	assert.Equal(t, api.Closed, cb.GetState())
	requests, failures := cb.GetCounts()
	assert.Equal(t, uint32(10), requests)
	assert.Equal(t, uint32(0), failures)
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	cb := newTestBreaker(1, nil)
	assert.Equal(t, api.Closed, cb.GetState())

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func() error {
			return errors.New("failure")
		})
	}
	assert.Equal(t, api.Open, cb.GetState())

	err := cb.Execute(context.Background(), func() error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, api.HalfOpen, cb.GetState())

	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Execute(context.Background(), func() error {
			return nil
		}))
	}
	assert.Equal(t, api.Closed, cb.GetState())
}

func TestCircuitBreaker_GetCounts(t *testing.T) {
	cfg := &config.CircuitBreakerConfig{
		MaxRequests:      10,
		Interval:         60,
		Timeout:          60,
		FailureRatio:     0.8,
		ConsecutiveFails: 10,
	}
	cb := service.NewCircuitBreaker("certification", cfg, zap.NewNop(), nil)

	requests, failures := cb.GetCounts()
	assert.Equal(t, uint32(0), requests)
	assert.Equal(t, uint32(0), failures)

	for i := 0; i < 5; i++ {
		fail := i%2 == 1
		_ = cb.Execute(context.Background(), func() error {
			if fail {
				return errors.New("failure")
			}
			return nil
		})
	}

	requests, failures = cb.GetCounts()
	assert.Equal(t, uint32(5), requests)
	assert.Equal(t, uint32(2), failures)
}

func TestCircuitBreaker_ObserveRunsWhileOpen(t *testing.T) {
	cb := newTestBreaker(60, nil)
	require.NoError(t, cb.Ready())

	calls := 0
	outage := errors.New("provider 503 outage")
	for i := 0; i < 10; i++ {
		err := cb.Observe(func() error {
			calls++
			return outage
		})
		assert.ErrorIs(t, err, outage)
	}

	assert.Equal(t, 10, calls)
	assert.Equal(t, api.Open, cb.GetState())

	err := cb.Ready()
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrServiceUnavailable)
	assert.Equal(t, "service unavailable: sms circuit breaker is open", err.Error())
}
