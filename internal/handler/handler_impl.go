// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/auth"
	"github.com/popeskul/insdr-dispatch/internal/middleware"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/recipient"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	maxBatchBodyBytes   = 10 << 20
	maxDepositBodyBytes = 64 << 20
	multipartMemory     = 32 << 20
)

const (
	errorMessageInvalidBody          = "Request body could not be decoded"
	errorMessageNoRecipients         = "No recipient was provided"
	errorMessageFailedToSendBatch    = "Failed to send batch"
	errorMessageFailedToRetrieveLogs = "Failed to retrieve send logs"
	errorMessageFailedToGetCredits   = "Failed to retrieve credits"
	errorMessageFailedToSetCredits   = "Failed to update credits"
	errorMessageFailedToDeposit      = "Failed to submit deposit"
	errorMessageMissingActor         = "Authenticated actor is missing"
)

type Handler struct {
	service *service.Service
	logger  *zap.Logger
}

// NewHandler creates a new handler instance that implements api.ServerInterface.
func NewHandler(service *service.Service, logger *zap.Logger) api.ServerInterface {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SendBatch implements api.ServerInterface.
func (h *Handler) SendBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBodyBytes)
	req, err := decodeBatchRequest(r)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, err.Error())
		return
	}
	if len(req.Recipients) == 0 {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageNoRecipients)
		return
	}
	req.Actor = actor

	result, err := h.service.Dispatch.SendBatch(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, errorMessageFailedToSendBatch)
		return
	}

	render.JSON(w, r, toBatchResponse(result))
}

// ListSendLogs implements api.ServerInterface.
func (h *Handler) ListSendLogs(w http.ResponseWriter, r *http.Request, params api.ListSendLogsParams) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	page := defaultPage
	limit := defaultLimit

	if params.Page != nil && *params.Page >= 1 {
		page = *params.Page
	}

	if params.Limit != nil && *params.Limit >= 1 && *params.Limit <= maxLimit {
		limit = *params.Limit
	}

	result, err := h.service.Dispatch.GetHistory(r.Context(), actor, page, limit)
	if err != nil {
		h.handleServiceError(w, r, err, errorMessageFailedToRetrieveLogs)
		return
	}

	render.JSON(w, r, result)
}

// GetCredits implements api.ServerInterface.
func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	result, err := h.service.Credit.GetCredits(r.Context(), actor)
	if err != nil {
		h.handleServiceError(w, r, err, errorMessageFailedToGetCredits)
		return
	}

	render.JSON(w, r, result)
}

// SetCredits implements api.ServerInterface.
func (h *Handler) SetCredits(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var body api.SetCreditsJSONRequestBody
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBatchBodyBytes), &body); err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidBody)
		return
	}

	result, err := h.service.Credit.SetCredits(r.Context(), actor, body.Credits)
	if err != nil {
		h.handleServiceError(w, r, err, errorMessageFailedToSetCredits)
		return
	}

	render.JSON(w, r, result)
}

// SubmitDeposit implements api.ServerInterface.
func (h *Handler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDepositBodyBytes)
	req, err := decodeDepositRequest(r)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, err.Error())
		return
	}
	req.Actor = actor

	result, err := h.service.Deposit.SubmitDeposit(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, errorMessageFailedToDeposit)
		return
	}

	render.JSON(w, r, toDepositResponse(result))
}

// HealthCheck implements api.ServerInterface.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health.GetHealth(r.Context())

	response := api.HealthResponse{
		Status:    health.Status,
		Timestamp: time.Now(),
	}

	if health.SessionStatus != "" {
		status := health.SessionStatus
		response.SessionStatus = &status
	}

	if health.DatabaseStatus != "" {
		status := health.DatabaseStatus
		response.DatabaseStatus = &status
	}

	if health.RedisStatus != "" {
		status := health.RedisStatus
		response.RedisStatus = &status
	}

	if health.CircuitBreakerStatus != "" {
		response.CircuitBreakerStatus = &health.CircuitBreakerStatus
	}

	if health.SMSCircuitBreakerState != "" {
		state := health.SMSCircuitBreakerState
		response.SmsCircuitBreakerState = &state
	}

	if health.CertificationCircuitState != "" {
		state := health.CertificationCircuitState
		response.CertificationCircuitBreakerState = &state
	}

	// Degraded stays 200 so the service keeps receiving traffic.
	if health.Status == api.Unhealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, response)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.sendError(w, r, http.StatusUnauthorized, middleware.ErrorCodeUnauthorized, errorMessageMissingActor)
		return "", false
	}
	return actor, true
}

func decodeBatchRequest(r *http.Request) (service.BatchRequest, error) {
	var req service.BatchRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return req, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, _, err := r.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return req, fmt.Errorf("invalid file part: %w", err)
		default:
			defer file.Close()
			numbers, err := recipient.ParseCSV(file)
			if err != nil {
				return req, err
			}
			req.Recipients = append(req.Recipients, numbers...)
		}

		req.Recipients = append(req.Recipients, recipient.ParseManual(r.FormValue("manual"))...)
		req.ReferenceURL = r.FormValue("reference_url")
		return req, nil
	}

	var body api.SendBatchJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		return req, errors.New(errorMessageInvalidBody)
	}

	if body.Recipients != nil {
		req.Recipients = append(req.Recipients, *body.Recipients...)
	}
	if body.Manual != nil {
		req.Recipients = append(req.Recipients, recipient.ParseManual(*body.Manual)...)
	}
	if body.ReferenceUrl != nil {
		req.ReferenceURL = *body.ReferenceUrl
	}
	return req, nil
}

func toBatchResponse(result *models.BatchResult) api.BatchResponse {
	outcomes := make([]api.SendOutcome, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		outcome := api.SendOutcome{
			Recipient: o.Recipient,
			Status:    o.Status,
		}
		if o.Error != "" {
			outcome.Error = &o.Error
		}
		if o.ProviderMessageID != "" {
			outcome.ProviderMessageId = &o.ProviderMessageID
		}
		if o.LogID != 0 {
			outcome.LogId = &o.LogID
		}
		if o.LogError != "" {
			outcome.LogError = &o.LogError
		}
		outcomes = append(outcomes, outcome)
	}

	resp := api.BatchResponse{
		Actor:    result.Actor,
		Message:  result.Message,
		Url:      result.URL,
		Sent:     result.SentCount(),
		Failed:   result.FailedCount(),
		Outcomes: outcomes,
		Rejected: result.Rejected,
	}
	if resp.Rejected == nil {
		resp.Rejected = []string{}
	}
	if len(result.Warnings) > 0 {
		resp.Warnings = &result.Warnings
	}
	return resp
}

func toDepositResponse(result *models.DepositResult) api.DepositResponse {
	resp := api.DepositResponse{
		Description: result.Description,
		Coordinates: api.Coordinates{
			Latitude:  result.Coordinates.Latitude,
			Longitude: result.Coordinates.Longitude,
		},
		FilesUploaded: result.FilesUploaded,
		Requests:      result.Requests,
	}
	if len(result.Errors) > 0 {
		resp.Errors = &result.Errors
	}
	return resp
}
