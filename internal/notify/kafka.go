package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes alert events as JSON messages on a Kafka topic.
// The message key is the new status, so consumers that only care about a
// particular severity can filter without decoding the payload.
type KafkaPublisher struct {
	w     *kafka.Writer
	topic string
}

// NewKafkaPublisher constructs a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic: topic,
	}
}

func (p *KafkaPublisher) PublishAlert(ctx context.Context, event AlertStatusChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify.KafkaPublisher.PublishAlert: marshal: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ToStatus),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("notify.KafkaPublisher.PublishAlert: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
