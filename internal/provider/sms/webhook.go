package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/config"
)

const webhookProvider = "webhook"

type webhookRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Content string `json:"content"`
}

type webhookResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// WebhookClient posts messages as JSON to a generic gateway.
type WebhookClient struct {
	cfg        config.WebhookConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWebhookClient(cfg config.WebhookConfig, httpClient *http.Client, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Send posts msg to the gateway. 200 and 202 count as accepted.
func (c *WebhookClient) Send(ctx context.Context, msg Message) (*Result, error) {
	jsonData, err := json.Marshal(webhookRequest{
		From:    msg.From,
		To:      msg.To,
		Content: msg.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ins-auth-key", c.cfg.AuthKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ProviderError{
			Provider:   webhookProvider,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(body)),
		}
	}

	var webhookResp webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&webhookResp); err != nil || webhookResp.MessageID == "" {
		// Accepted without a usable body: keep a local id so the send can be traced.
		webhookResp.MessageID = "temp-" + uuid.NewString()
	}

	return &Result{
		MessageID: webhookResp.MessageID,
		Status:    webhookResp.Message,
	}, nil
}
