package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/infra/config"
)

// NewConsumerGroup joins groupID on the configured brokers. Each instance uses its own
// group id so that every instance receives every revocation.
func NewConsumerGroup(cfg config.KafkaSettings, groupID, clientID string, logger *zap.Logger) (sarama.ConsumerGroup, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, groupID, newSaramaConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	logger.Info("kafka consumer group initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("group_id", groupID),
	)
	return group, nil
}

// InstanceGroupID derives the per-instance consumer group name.
func InstanceGroupID(prefix, instanceID string) string {
	if instanceID == "" {
		return prefix
	}
	return fmt.Sprintf("%s-%s", prefix, instanceID)
}
