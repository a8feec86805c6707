// Package sms contains outbound SMS provider clients.
package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/config"
)

//go:generate mockgen -source=sms.go -destination=mocks/mock_sms.go -package=mocks

// Message is a single SMS to deliver.
type Message struct {
	From string
	To   string
	Body string
}

// Result is the provider acknowledgement of a message.
type Result struct {
	MessageID string
	Status    string
}

// Sender delivers one message through an SMS provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// ProviderError is a rejection reported by the provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Rejected reports whether the provider refused this particular message
// (bad number, unverified recipient) rather than failing as a whole.
func (e *ProviderError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 429
}

// IsRejection reports whether err is a per-message rejection from a provider.
func IsRejection(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Rejected()
}

// NewSender builds the provider selected by cfg.Provider.
func NewSender(cfg config.SMSConfig, logger *zap.Logger) (Sender, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	switch cfg.Provider {
	case "twilio":
		return NewTwilioClient(cfg.Twilio, httpClient), nil
	case "webhook":
		return NewWebhookClient(cfg.Webhook, httpClient, logger), nil
	case "log":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported sms provider %q", cfg.Provider)
	}
}
