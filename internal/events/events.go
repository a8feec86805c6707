// Package events publishes batch lifecycle notifications to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/config"
)

//go:generate mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks

// BatchCompleted is emitted once a batch has been fully processed.
type BatchCompleted struct {
	Actor      string    `json:"actor"`
	URL        string    `json:"url"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Rejected   int       `json:"rejected"`
	Warnings   int       `json:"warnings"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers batch events.
type Publisher interface {
	PublishBatchCompleted(ctx context.Context, event BatchCompleted) error
	Close()
}

// NewPublisher connects to cfg.NatsURL, or returns a publisher that drops
// events when no URL is configured.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	if cfg.NatsURL == "" {
		logger.Info("NATS URL not configured, batch events disabled")
		return NoopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name("insdr-dispatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", cfg.NatsURL), zap.String("subject", cfg.Subject))

	return &natsPublisher{
		conn:    nc,
		subject: cfg.Subject,
	}, nil
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

func (p *natsPublisher) PublishBatchCompleted(_ context.Context, event BatchCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishBatchCompleted(context.Context, BatchCompleted) error { return nil }

func (NoopPublisher) Close() {}
