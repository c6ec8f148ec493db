package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher forwards events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewAMQPPublisher dials url and declares queue.
func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	logger.Info("connected to amqp broker", zap.String("queue", queue))
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

// Handle publishes event; it has the EventHandler signature so it can be
// subscribed to a Dispatcher.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	msg, err := BuildMessage(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("amqp publisher closed")
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.logger.Warn("amqp publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// BuildMessage encodes event as a persistent JSON message.
func BuildMessage(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.Timestamp,
		Body:         body,
	}, nil
}
