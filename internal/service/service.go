package service

import (
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/cache"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/events"
	"github.com/popeskul/insdr-dispatch/internal/provider/certify"
	"github.com/popeskul/insdr-dispatch/internal/provider/geocode"
	"github.com/popeskul/insdr-dispatch/internal/provider/sms"
	"github.com/popeskul/insdr-dispatch/internal/repository"
)

type Service struct {
	Dispatch DispatchService
	Credit   CreditService
	Deposit  DepositService
	Session  SessionService
	Health   HealthService
}

// Dependencies are the external collaborators the services are built on.
type Dependencies struct {
	Repo          repository.Repository
	Index         cache.MessageIndex
	Sender        sms.Sender
	Geocoder      geocode.Geocoder
	Certifier     certify.API
	Publisher     events.Publisher
	Authenticator auth.Authenticator
}

func NewService(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Service {
	certificationBreaker := NewCircuitBreaker("certification", &cfg.Certification.CircuitBreaker, logger, nil)

	dispatchService := NewDispatchService(cfg, deps.Repo, deps.Sender, deps.Index, deps.Publisher, deps.Authenticator, logger)
	creditService := NewCreditService(cfg, deps.Repo, deps.Authenticator, logger)
	sessionService := NewSessionService(cfg, deps.Certifier, certificationBreaker, logger)
	depositService := NewDepositService(cfg, deps.Geocoder, deps.Certifier, sessionService, certificationBreaker, logger)
	healthService := NewHealthService(deps.Repo, deps.Index, sessionService, dispatchService, depositService)

	return &Service{
		Dispatch: dispatchService,
		Credit:   creditService,
		Deposit:  depositService,
		Session:  sessionService,
		Health:   healthService,
	}
}
