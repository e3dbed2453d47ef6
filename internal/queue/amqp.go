package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes JSON jobs to durable RabbitMQ queues named after the topic.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool

	MaxRetries int
	Logger     *slog.Logger
}

var _ Queue = (*AMQPQueue)(nil)

func DialAMQP(url string, logger *slog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPQueue{
		conn:       conn,
		ch:         ch,
		declared:   map[string]bool{},
		MaxRetries: 3,
		Logger:     logger.With("component", "amqpQueue"),
	}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	return q.publish(topic, payload, 0)
}

func (q *AMQPQueue) publish(topic string, payload any, retries int32) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: retries},
		Body:         body,
	})
}

// Subscribe consumes topic until the connection closes. Failed jobs are
// republished with an incremented retry header, then dropped after MaxRetries.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	err := q.declare(topic)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			q.handle(topic, d, handler)
		}
		q.Logger.Info("consumer stopped", "topic", topic)
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler func(payload any) error) {
	var payload any
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		q.Logger.Error("invalid job body", "topic", topic, "error", err)
		d.Ack(false)
		return
	}

	err := handler(payload)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	if int(retries) >= q.MaxRetries {
		q.Logger.Error("job permanently failed", "topic", topic, "payload", payload, "attempts", retries+1, "error", err)
		d.Ack(false)
		return
	}

	q.Logger.Warn("job failed, requeueing", "topic", topic, "payload", payload, "attempt", retries+1, "error", err)
	if perr := q.publish(topic, payload, retries+1); perr != nil {
		q.Logger.Error("requeue failed", "topic", topic, "error", perr)
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

func retryCount(headers amqp.Table) int32 {
	switch v := headers[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
