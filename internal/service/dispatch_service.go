package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/cache"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/events"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/provider/sms"
	"github.com/popeskul/insdr-dispatch/internal/recipient"
	"github.com/popeskul/insdr-dispatch/internal/repository"
)

type dispatchService struct {
	cfg            *config.Config
	repo           repository.Repository
	sender         sms.Sender
	index          cache.MessageIndex
	publisher      events.Publisher
	authenticator  auth.Authenticator
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
}

func NewDispatchService(
	cfg *config.Config,
	repo repository.Repository,
	sender sms.Sender,
	index cache.MessageIndex,
	publisher events.Publisher,
	authenticator auth.Authenticator,
	logger *zap.Logger,
) DispatchService {
	cb := NewCircuitBreaker("sms", &cfg.SMS.CircuitBreaker, logger, func(err error) bool {
		return err == nil || sms.IsRejection(err)
	})

	return &dispatchService{
		cfg:            cfg,
		repo:           repo,
		sender:         sender,
		index:          index,
		publisher:      publisher,
		authenticator:  authenticator,
		logger:         logger,
		circuitBreaker: cb,
	}
}

// SendBatch sends the rendered template to every recipient carrying the
// configured country prefix and records one log row per attempt. Once the
// first message is handed to the provider the batch runs to completion even
// if ctx is cancelled or the sms breaker trips; an open breaker only rejects
// batches that have not started.
func (s *dispatchService) SendBatch(ctx context.Context, req BatchRequest) (*models.BatchResult, error) {
	if req.Actor == "" {
		return nil, &ValidationError{Message: "actor is required"}
	}

	template := req.Template
	if template == "" {
		template = s.cfg.Dispatch.Template
	}
	if !strings.Contains(template, config.URLPlaceholder) {
		return nil, &ValidationError{Message: fmt.Sprintf("template must contain %s", config.URLPlaceholder)}
	}

	referenceURL := req.ReferenceURL
	if referenceURL == "" {
		referenceURL = s.cfg.Dispatch.ReferenceURL
	}

	valid, invalid := recipient.Partition(req.Recipients, s.cfg.Dispatch.CountryPrefix)
	if len(valid) == 0 {
		return nil, &ValidationError{
			Message:  fmt.Sprintf("no recipient starts with %s", s.cfg.Dispatch.CountryPrefix),
			Rejected: invalid,
			Err:      ErrNoValidRecipients,
		}
	}

	if limit := s.cfg.Dispatch.MaxBatchSize; limit > 0 && len(valid) > limit {
		return nil, &ValidationError{
			Message: fmt.Sprintf("batch of %d recipients exceeds the limit of %d", len(valid), limit),
		}
	}

	if err := s.circuitBreaker.Ready(); err != nil {
		return nil, err
	}

	if s.cfg.Dispatch.CreditsEnabled {
		balance, err := s.repo.Credit().Get(ctx, req.Actor)
		if err != nil {
			return nil, fmt.Errorf("failed to read credit balance: %w", err)
		}
		if len(valid) > balance {
			return nil, &InsufficientCreditError{Required: len(valid), Available: balance}
		}
	}

	body := recipient.Render(template, config.URLPlaceholder, referenceURL)

	result := &models.BatchResult{
		Actor:    req.Actor,
		Message:  body,
		URL:      referenceURL,
		Outcomes: make([]models.SendOutcome, 0, len(valid)),
		Rejected: invalid,
	}

	s.logger.Info("Starting batch",
		zap.String("actor", req.Actor),
		zap.Int("valid", len(valid)),
		zap.Int("rejected", len(invalid)))

	batchCtx := context.WithoutCancel(ctx)
	for _, to := range valid {
		outcome, warnings := s.sendOne(batchCtx, req.Actor, to, body, referenceURL)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Warnings = append(result.Warnings, warnings...)
	}

	s.logger.Info("Batch completed",
		zap.String("actor", req.Actor),
		zap.Int("sent", result.SentCount()),
		zap.Int("failed", result.FailedCount()),
		zap.Int("warnings", len(result.Warnings)))

	event := events.BatchCompleted{
		Actor:      req.Actor,
		URL:        referenceURL,
		Sent:       result.SentCount(),
		Failed:     result.FailedCount(),
		Rejected:   len(invalid),
		Warnings:   len(result.Warnings),
		FinishedAt: time.Now(),
	}
	if err := s.publisher.PublishBatchCompleted(batchCtx, event); err != nil {
		s.logger.Warn("Failed to publish batch event",
			zap.String("actor", req.Actor),
			zap.Error(err))
	}

	return result, nil
}

// sendOne performs a single attempt. Store failures come back as warnings and
// never change the send status.
func (s *dispatchService) sendOne(ctx context.Context, actor, to, body, referenceURL string) (models.SendOutcome, []string) {
	var warnings []string
	outcome := models.SendOutcome{Recipient: to}

	var res *sms.Result
	err := s.circuitBreaker.Observe(func() error {
		var sendErr error
		res, sendErr = s.sender.Send(ctx, sms.Message{
			From: s.cfg.SMS.From,
			To:   to,
			Body: body,
		})
		return sendErr
	})

	if err != nil {
		extErr := &ExternalServiceError{Service: "sms", Err: err}
		outcome.Status = models.FailedStatus(extErr.Error())
		outcome.Error = extErr.Error()

		requests, failures := s.circuitBreaker.GetCounts()
		s.logger.Error("Failed to send message",
			zap.String("actor", actor),
			zap.String("recipient", to),
			zap.Error(err),
			zap.String("circuitBreakerState", string(s.circuitBreaker.GetState())),
			zap.Uint32("totalRequests", requests),
			zap.Uint32("totalFailures", failures))
	} else {
		outcome.Status = models.StatusSent
		outcome.ProviderMessageID = res.MessageID

		s.logger.Info("Message sent successfully",
			zap.String("actor", actor),
			zap.String("recipient", to),
			zap.String("externalMessageID", res.MessageID))
	}

	entry := &models.SendLog{
		Actor:     actor,
		Recipient: to,
		Message:   body,
		URL:       referenceURL,
		Status:    outcome.Status,
	}
	if err := s.repo.SendLog().Create(ctx, entry); err != nil {
		outcome.LogError = err.Error()
		warnings = append(warnings, fmt.Sprintf("%s: failed to write send log: %v", to, err))
		s.logger.Error("Failed to write send log",
			zap.String("actor", actor),
			zap.String("recipient", to),
			zap.Error(err))
	} else {
		outcome.LogID = entry.ID
	}

	if !outcome.Sent() {
		return outcome, warnings
	}

	if s.cfg.Dispatch.CreditsEnabled {
		if err := s.repo.Credit().Decrement(ctx, actor); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: failed to decrement credit: %v", to, err))
			s.logger.Error("Failed to decrement credit",
				zap.String("actor", actor),
				zap.Error(err))
		}
	}

	if outcome.LogID != 0 && outcome.ProviderMessageID != "" {
		if err := s.index.Remember(ctx, outcome.ProviderMessageID, outcome.LogID); err != nil {
			s.logger.Warn("Failed to cache message ID in Redis",
				zap.String("messageID", outcome.ProviderMessageID),
				zap.Error(err))
		}
	}

	return outcome, warnings
}

// GetHistory returns the actor's send log, newest first. The administrator
// sees every actor's rows.
func (s *dispatchService) GetHistory(ctx context.Context, actor string, page, limit int) (*api.SendLogListResponse, error) {
	if page < 1 || limit < 1 {
		return nil, &ValidationError{Message: "page and limit must be positive"}
	}

	filter := models.LogFilter{
		Actor:  actor,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if s.authenticator.IsAdmin(actor) {
		filter.Actor = ""
	}

	entries, err := s.repo.SendLog().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list send logs: %w", err)
	}

	totalCount, err := s.repo.SendLog().Count(ctx, filter.Actor)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	totalPages := int(totalCount) / limit
	if int(totalCount)%limit > 0 {
		totalPages++
	}

	logs := make([]api.SendLog, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, api.SendLog{
			Id:        e.ID,
			Actor:     e.Actor,
			Recipient: e.Recipient,
			Message:   e.Message,
			Url:       e.URL,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
		})
	}

	return &api.SendLogListResponse{
		Logs: logs,
		Pagination: api.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   int(totalCount),
			ItemsPerPage: limit,
		},
	}, nil
}

func (s *dispatchService) GetCircuitBreakerStatus() (state api.CircuitBreakerState, requests uint32, failures uint32) {
	state = s.circuitBreaker.GetState()
	requests, failures = s.circuitBreaker.GetCounts()
	return
}
