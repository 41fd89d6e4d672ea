package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/logger"
)

// LagObserver records how far behind a replicated revocation arrived.
type LagObserver interface {
	ObserveRevocationLag(lag time.Duration)
}

// RevocationConsumerOptions controls which events are applied.
type RevocationConsumerOptions struct {
	// Origin identifies this instance; events it published are skipped.
	Origin      string
	MaxEventLag time.Duration
}

// RevocationConsumer applies token revocations published by peer instances to the local store.
type RevocationConsumer struct {
	replica     port.RevocationReplica
	metrics     LagObserver
	logger      *zap.Logger
	origin      string
	maxEventLag time.Duration
	now         func() time.Time
}

// NewRevocationConsumer constructs a consumer that keeps the local revocation store current.
func NewRevocationConsumer(replica port.RevocationReplica, metrics LagObserver, log *zap.Logger, opts RevocationConsumerOptions) *RevocationConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RevocationConsumer{
		replica:     replica,
		metrics:     metrics,
		logger:      log,
		origin:      opts.Origin,
		maxEventLag: opts.MaxEventLag,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the consumer clock for deterministic testing.
func (c *RevocationConsumer) WithClock(clock func() time.Time) *RevocationConsumer {
	if clock != nil {
		c.now = clock
	}
	return c
}

// HandleMessage decodes a Kafka message prior to processing.
func (c *RevocationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}
	if envelope.EventType != eventTypeTokenRevoked {
		c.logger.Debug("skip unrelated event", zap.String("event_type", envelope.EventType))
		return nil
	}

	var event domain.TokenRevokedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode token revoked event: %w", err)
	}
	return c.HandleEvent(ctx, event)
}

// HandleEvent applies one revocation. Own-origin and already expired events are ignored.
func (c *RevocationConsumer) HandleEvent(ctx context.Context, event domain.TokenRevokedEvent) error {
	if c.replica == nil {
		return nil
	}
	if event.TokenDigest == "" {
		return fmt.Errorf("token revoked event %s: missing digest", event.EventID)
	}
	if c.origin != "" && event.Origin == c.origin {
		return nil
	}

	now := c.now()
	if !event.ExpiresAt.IsZero() && event.ExpiresAt.Before(now) {
		c.logger.Debug("skip expired revocation", zap.String("token_digest", logger.MaskDigest(event.TokenDigest)))
		return nil
	}

	if !event.RevokedAt.IsZero() {
		lag := now.Sub(event.RevokedAt)
		if lag < 0 {
			lag = 0
		}
		if c.metrics != nil {
			c.metrics.ObserveRevocationLag(lag)
		}
		if c.maxEventLag > 0 && lag > c.maxEventLag {
			c.logger.Warn("token revocation event lag exceeds threshold",
				zap.Duration("lag", lag),
				zap.Duration("threshold", c.maxEventLag),
				zap.String("origin", event.Origin),
			)
		}
	}

	if err := c.replica.ApplyRevocation(ctx, event.Revocation()); err != nil {
		return fmt.Errorf("apply revocation: %w", err)
	}
	return nil
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *RevocationConsumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *RevocationConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim applies every message in the claim and marks it consumed. Undecodable
// messages are logged and skipped so a poison message cannot stall the partition.
func (c *RevocationConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.HandleMessage(session.Context(), msg); err != nil {
				c.logger.Error("failed to apply token revocation",
					zap.Error(err),
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Run joins the consumer group and consumes until ctx is cancelled.
func (c *RevocationConsumer) Run(ctx context.Context, group sarama.ConsumerGroup, topics []string) error {
	go func() {
		for err := range group.Errors() {
			c.logger.Warn("kafka consumer group error", zap.Error(err))
		}
	}()

	for {
		if err := group.Consume(ctx, topics, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("kafka consume failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

var _ sarama.ConsumerGroupHandler = (*RevocationConsumer)(nil)
