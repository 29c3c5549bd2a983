package kafka

import (
	"context"
	"errors"

	"ms-approvals/internal/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. A returned error is logged; the offset is still committed.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start blocks, consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) {
	topic := c.reader.Config().Topic
	c.logger.LogKafka("CONSUME", topic, "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.LogKafka("CONSUME", topic, "consumer stopped")
				return
			}
			c.logger.Error("KAFKA", "error reading message from "+topic+": "+err.Error())
			continue
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Error("KAFKA", "handler failed for "+topic+" key="+string(msg.Key)+": "+err.Error())
		}
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
