package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/repository"
)

type creditService struct {
	cfg           *config.Config
	repo          repository.Repository
	authenticator auth.Authenticator
	logger        *zap.Logger
}

func NewCreditService(
	cfg *config.Config,
	repo repository.Repository,
	authenticator auth.Authenticator,
	logger *zap.Logger,
) CreditService {
	return &creditService{
		cfg:           cfg,
		repo:          repo,
		authenticator: authenticator,
		logger:        logger,
	}
}

// GetCredits returns the actor's own balance, or every balance together with
// the purchased pool for the administrator.
func (s *creditService) GetCredits(ctx context.Context, actor string) (*api.CreditsResponse, error) {
	if !s.authenticator.IsAdmin(actor) {
		credits, err := s.repo.Credit().Get(ctx, actor)
		if err != nil {
			return nil, fmt.Errorf("failed to get credits: %w", err)
		}

		return &api.CreditsResponse{
			Balances: []api.CreditBalance{{Actor: actor, Credits: credits}},
		}, nil
	}

	balances, err := s.repo.Credit().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}

	allocated, err := s.repo.Credit().Total(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits: %w", err)
	}

	total := s.cfg.Dispatch.AdminTotalCredits
	response := &api.CreditsResponse{
		Balances: make([]api.CreditBalance, 0, len(balances)),
	}
	for _, b := range balances {
		updatedAt := b.UpdatedAt
		response.Balances = append(response.Balances, api.CreditBalance{
			Actor:     b.Actor,
			Credits:   b.Credits,
			UpdatedAt: &updatedAt,
		})
	}

	unallocated := total - allocated
	response.TotalPurchased = &total
	response.Allocated = &allocated
	response.Unallocated = &unallocated

	return response, nil
}

// SetCredits overwrites the balances named in credits. Balances not named keep
// their value and still count against the purchased pool.
func (s *creditService) SetCredits(ctx context.Context, actor string, credits map[string]int) (*api.CreditsResponse, error) {
	if !s.authenticator.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	if len(credits) == 0 {
		return nil, &ValidationError{Message: "no balance to update"}
	}

	var details []string
	for name, value := range credits {
		if strings.TrimSpace(name) == "" {
			details = append(details, "actor name must not be empty")
		}
		switch {
		case value < 0:
			details = append(details, fmt.Sprintf("%s: credits must not be negative", name))
		case value > s.cfg.Dispatch.AdminTotalCredits:
			details = append(details, fmt.Sprintf("%s: credits exceed the pool of %d", name, s.cfg.Dispatch.AdminTotalCredits))
		}
	}
	if len(details) > 0 {
		sort.Strings(details)
		return nil, &ValidationError{Message: "invalid credit allocation", Details: details}
	}

	current, err := s.repo.Credit().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}

	requested := 0
	for _, b := range current {
		if _, replaced := credits[b.Actor]; !replaced {
			requested += b.Credits
		}
	}
	for _, value := range credits {
		requested += value
	}

	if requested > s.cfg.Dispatch.AdminTotalCredits {
		return nil, &AllocationError{Requested: requested, Available: s.cfg.Dispatch.AdminTotalCredits}
	}

	if err := s.repo.Credit().SetMany(ctx, credits); err != nil {
		return nil, fmt.Errorf("failed to set credits: %w", err)
	}

	s.logger.Info("Credits updated",
		zap.String("actor", actor),
		zap.Int("balances", len(credits)),
		zap.Int("allocated", requested))

	return s.GetCredits(ctx, actor)
}
