// Package queue defines the messages exchanged over RabbitMQ and the
// consumer that writes them to the sales log.
package queue

import (
	"time"

	"github.com/iliyamo/ip-manager/internal/model"
)

// SaleRecordedQueue is the durable queue sale events are published to.
const SaleRecordedQueue = "sale.recorded"

// SaleRecordedEvent is published after a sale has been stored. It carries
// enough for consumers to log or notify without querying the database.
type SaleRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	CustomerName  string `json:"customer_name"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	TotalAmount   string `json:"total_amount"`
	Status        string `json:"status"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	RecordedAt    string `json:"recorded_at"`
}

// NewSaleRecordedEvent builds the event for tx.
func NewSaleRecordedEvent(tx model.Transaction) SaleRecordedEvent {
	ev := SaleRecordedEvent{
		TransactionID: tx.ID,
		CustomerName:  tx.CustomerName,
		ProductID:     tx.ProductID,
		ProductName:   tx.ProductName,
		Quantity:      tx.Quantity,
		TotalAmount:   tx.TotalAmount.StringFixed(2),
		Status:        tx.Status,
		RecordedAt:    tx.CreatedAt.UTC().Format(time.RFC3339),
	}
	if tx.ExpiryDate != nil {
		ev.ExpiryDate = tx.ExpiryDate.String()
	}
	return ev
}
