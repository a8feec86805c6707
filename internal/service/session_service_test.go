package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	certifymocks "github.com/popeskul/insdr-dispatch/internal/provider/certify/mocks"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

func newSessionService(t *testing.T) (service.SessionService, *certifymocks.MockAPI) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := certifymocks.NewMockAPI(ctrl)

	cfg := testConfig()
	breaker := service.NewCircuitBreaker("certification", &cfg.Certification.CircuitBreaker, zap.NewNop(), nil)
	return service.NewSessionService(cfg, client, breaker, zap.NewNop()), client
}

func TestSessionService_SessionID(t *testing.T) {
	svc, client := newSessionService(t)

	gomock.InOrder(
		client.EXPECT().Login(gomock.Any()).Return("sess-1", nil),
		client.EXPECT().Login(gomock.Any()).Return("sess-2", nil),
	)

	sessionID, err := svc.SessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)

	// Cached until invalidated.
	sessionID, err = svc.SessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)

	svc.Invalidate()
	sessionID, err = svc.SessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-2", sessionID)
}

func TestSessionService_SessionID_LoginFailure(t *testing.T) {
	svc, client := newSessionService(t)
	client.EXPECT().Login(gomock.Any()).Return("", errors.New("bad account key"))

	_, err := svc.SessionID(context.Background())
	require.Error(t, err)
	assert.Equal(t, "certification login: bad account key", err.Error())
}

func TestSessionService_StartStop(t *testing.T) {
	svc, client := newSessionService(t)

	loggedIn := make(chan struct{})
	client.EXPECT().Login(gomock.Any()).DoAndReturn(func(context.Context) (string, error) {
		close(loggedIn)
		return "sess-1", nil
	})

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	<-loggedIn

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())

	sessionID, err := svc.SessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)
}
