package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	"github.com/popeskul/insdr-dispatch/internal/middleware"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

const (
	errorCodeInvalidRequest      = "INVALID_REQUEST"
	errorCodeNoValidRecipients   = "NO_VALID_RECIPIENTS"
	errorCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	errorCodeForbidden           = "FORBIDDEN"
	errorCodeAllocationExceeded  = "CREDIT_ALLOCATION_EXCEEDED"
	errorCodeValidationFailed    = "VALIDATION_FAILED"
	errorCodeUpstreamFailed      = "UPSTREAM_FAILED"
	errorCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// handleServiceError maps the service error taxonomy onto HTTP responses.
// Anything unrecognised is logged and answered with a generic 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	var (
		validationErr *service.ValidationError
		creditErr     *service.InsufficientCreditError
		allocationErr *service.AllocationError
		externalErr   *service.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		resp := newErrorResponse(errorCodeInvalidRequest, validationErr.Message)
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrNoValidRecipients):
			status = http.StatusUnprocessableEntity
			resp.Error = errorCodeNoValidRecipients
			rejected := validationErr.Rejected
			resp.Rejected = &rejected
		case len(validationErr.Details) > 0:
			status = http.StatusUnprocessableEntity
			resp.Error = errorCodeValidationFailed
			details := validationErr.Details
			resp.Details = &details
		}
		h.writeError(w, r, status, resp)

	case errors.As(err, &creditErr):
		resp := newErrorResponse(errorCodeInsufficientCredits, creditErr.Error())
		resp.Required = &creditErr.Required
		resp.Available = &creditErr.Available
		h.writeError(w, r, http.StatusPaymentRequired, resp)

	case errors.Is(err, service.ErrForbidden):
		h.sendError(w, r, http.StatusForbidden, errorCodeForbidden, err.Error())

	case errors.As(err, &allocationErr):
		h.sendError(w, r, http.StatusConflict, errorCodeAllocationExceeded, allocationErr.Error())

	case errors.Is(err, service.ErrServiceUnavailable):
		h.logger.Warn("Upstream unavailable",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendError(w, r, http.StatusServiceUnavailable, errorCodeServiceUnavailable, err.Error())

	case errors.As(err, &externalErr):
		h.logger.Error("Upstream call failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("service", externalErr.Service),
			zap.Error(err))
		h.sendError(w, r, http.StatusBadGateway, errorCodeUpstreamFailed, externalErr.Service+": "+externalErr.Error())

	default:
		h.logger.Error(fallbackMessage,
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, fallbackMessage)
	}
}

func newErrorResponse(code, message string) api.ErrorResponse {
	now := time.Now()
	return api.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: &now,
	}
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	h.writeError(w, r, statusCode, newErrorResponse(errorCode, message))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, statusCode int, resp api.ErrorResponse) {
	render.Status(r, statusCode)
	render.JSON(w, r, resp)
}
