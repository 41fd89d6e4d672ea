package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishTokenRevoked logs the revocation locally.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", eventTypeTokenRevoked),
		zap.String("subject", event.Subject),
		zap.String("token_digest", logger.MaskDigest(event.TokenDigest)),
		zap.Time("expires_at", event.ExpiresAt.UTC()),
		zap.String("reason", event.Reason),
	)
	return nil
}

var _ port.RevocationPublisher = (*StubPublisher)(nil)
