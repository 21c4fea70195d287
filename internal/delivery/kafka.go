package delivery

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaChannel publishes notification events keyed by NGO id, so one NGO's
// events stay ordered within a partition.
type KafkaChannel struct {
	writer messageWriter
}

func NewKafkaChannel(brokers []string, topic string) *KafkaChannel {
	return &KafkaChannel{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (c *KafkaChannel) Name() string { return "kafka" }

func (c *KafkaChannel) Send(ctx context.Context, env Envelope) error {
	body, err := encodeEvent(env)
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.Notification.NGOID),
		Value: body,
		Time:  time.Now(),
	})
}

func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
