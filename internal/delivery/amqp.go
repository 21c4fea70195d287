package delivery

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPChannel publishes notification events to a durable queue for push
// workers.
type AMQPChannel struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	pub   publisher
	queue string
}

func DialAMQP(url, queue string) (*AMQPChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPChannel{conn: conn, ch: ch, pub: ch, queue: queue}, nil
}

func (c *AMQPChannel) Name() string { return "amqp" }

func (c *AMQPChannel) Send(ctx context.Context, env Envelope) error {
	body, err := encodeEvent(env)
	if err != nil {
		return err
	}
	return c.pub.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.Notification.ID,
		Timestamp:    env.Notification.Timestamp,
		Body:         body,
	})
}

func (c *AMQPChannel) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
