package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/order/pkg/request"
	"github.com/Alturino/foodorder/order/pkg/status"
)

type Order struct {
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Customer    request.Customer `json:"customer"`
	Items       []OrderItem      `json:"items"`
	Note        string           `json:"note,omitempty"`
	DeviceID    string           `json:"deviceId"`
	District    string           `json:"district"`
	Village     string           `json:"village"`
	Status      status.Status    `json:"status"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	DeliveryFee decimal.Decimal  `json:"deliveryFee"`
	PlatformFee decimal.Decimal  `json:"platformFee"`
	GrandTotal  decimal.Decimal  `json:"grandTotal"`
	OrderNumber int64            `json:"orderNumber"`
	ID          uuid.UUID        `json:"id"`
}

type OrderItem struct {
	Name     string          `json:"name"`
	Size     string          `json:"size,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Checkout struct {
	Order      Order  `json:"order"`
	HandoffURL string `json:"handoffUrl"`
}

type Tracking struct {
	Order    Order          `json:"order"`
	Timeline []status.Stage `json:"timeline"`
}
