package queue

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName is used when RABBITMQ_QUEUE is unset.
const DefaultQueueName = "evaluation_queue"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// RabbitClient publishes to and consumes from one durable RabbitMQ queue.
type RabbitClient struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu sync.Mutex
}

// DialRabbit connects to url and declares the durable queue.
func DialRabbit(url, queueName string) (*RabbitClient, error) {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return &RabbitClient{conn: conn, ch: ch, queue: queueName}, nil
}

// Queue returns the declared queue name.
func (c *RabbitClient) Queue() string { return c.queue }

// Send publishes msg as a persistent JSON message.
func (c *RabbitClient) Send(ctx context.Context, msg Message) error {
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(ctx,
		"",      // default exchange
		c.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.RequestID,
			Body:         body,
		},
	)
}

// Consume starts a manual-ack consumer limited to prefetch unacked deliveries.
// The returned channel closes when the connection or channel closes.
func (c *RabbitClient) Consume(consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch > 0 {
		if err := c.ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	deliveries, err := c.ch.Consume(
		c.queue,
		consumer,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}
	return deliveries, nil
}

// Close shuts down the channel and connection.
func (c *RabbitClient) Close() error {
	chErr := c.ch.Close()
	connErr := c.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
