// Package event holds the payloads published on the order topics.
package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/order/pkg/status"
)

// OrderCreated is published on pubsub.TopicOrderCreated.
type OrderCreated struct {
	OrderNumber  int64           `json:"orderNumber"`
	DeviceID     string          `json:"deviceId"`
	CustomerName string          `json:"customerName"`
	ItemCount    int             `json:"itemCount"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// OrderStatusChanged is published on pubsub.TopicOrderStatus.
type OrderStatusChanged struct {
	OrderNumber int64         `json:"orderNumber"`
	DeviceID    string        `json:"deviceId"`
	From        status.Status `json:"from"`
	To          status.Status `json:"to"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
