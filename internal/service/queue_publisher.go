// Package queue_publisher publishes domain events to RabbitMQ. Errors are
// logged and returned so callers can ignore them without interrupting the
// request that caused the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/model"
	q "github.com/iliyamo/ip-manager/internal/queue"
)

// Publisher opens a short-lived connection per event. Sales are rare
// enough that a pooled channel is not worth the reconnect handling.
type Publisher struct {
	URL string
	Log *zap.Logger
}

func New(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{URL: url, Log: log}
}

// PublishSaleRecorded publishes tx to the sale.recorded queue as a
// persistent message.
func (p *Publisher) PublishSaleRecorded(ctx context.Context, tx model.Transaction) error {
	return p.publish(ctx, q.SaleRecordedQueue, q.NewSaleRecordedEvent(tx))
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}
