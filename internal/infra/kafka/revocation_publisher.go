package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/config"
	"github.com/localsolutions/board-api/internal/infra/logger"
)

const (
	schemaVersion         = "1.0"
	eventTypeTokenRevoked = "token.revoked"
)

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   json.RawMessage  `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

// RevocationPublisher implements port.RevocationPublisher on top of the Kafka producer.
type RevocationPublisher struct {
	producer *Producer
	topic    string
	appCfg   config.AppSettings
	logger   *zap.Logger
}

// NewRevocationPublisher publishes to the prefixed form of topic (board.token.revoked by default).
func NewRevocationPublisher(producer *Producer, topic string, appCfg config.AppSettings, log *zap.Logger) *RevocationPublisher {
	if topic == "" {
		topic = eventTypeTokenRevoked
	}
	return &RevocationPublisher{
		producer: producer,
		topic:    producer.TopicName(topic),
		appCfg:   appCfg,
		logger:   log,
	}
}

// Topic reports the fully qualified topic name.
func (p *RevocationPublisher) Topic() string {
	return p.topic
}

// PublishTokenRevoked enqueues the event keyed by token digest so replays land on one partition.
func (p *RevocationPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.RevokedAt.IsZero() {
		event.RevokedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal token revoked payload: %w", err)
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   event.EventID,
		EventType: eventTypeTokenRevoked,
		Timestamp: event.RevokedAt.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.TokenDigest),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		p.logger.Debug("token revocation published",
			zap.String("event_id", event.EventID),
			zap.String("token_digest", logger.MaskDigest(event.TokenDigest)),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.RevocationPublisher = (*RevocationPublisher)(nil)
