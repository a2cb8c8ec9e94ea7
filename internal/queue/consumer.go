package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SalesConsumer listens to the sale.recorded queue and appends one line
// per sale to <Dir>/sales.log.
type SalesConsumer struct {
	URL string
	Dir string
	Log *zap.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled. Broker
// failures are retried with exponential backoff up to 30s; a message that
// cannot be handled is rejected without requeue so the loop keeps going.
func (s *SalesConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(s.URL)
		if err != nil {
			s.Log.Warn("sales consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = s.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Log.Warn("sales consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *SalesConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		s.Log.Warn("sales consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(SaleRecordedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(SaleRecordedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := s.Handle(d.Body); err != nil {
				s.Log.Warn("sales consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle appends the sale carried by body to the sales log.
func (s *SalesConsumer) Handle(body []byte) error {
	var ev SaleRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TransactionID == "" {
		return errors.New("event without transaction id")
	}
	dir := s.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "sales.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Sale recorded | transaction_id=%s | customer=%q | product_id=%s | product=%q | qty=%d | total=%s | status=%s",
		ev.RecordedAt, ev.TransactionID, ev.CustomerName, ev.ProductID, ev.ProductName, ev.Quantity, ev.TotalAmount, ev.Status)
	if ev.ExpiryDate != "" {
		line += " | expires=" + ev.ExpiryDate
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
