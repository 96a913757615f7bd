package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/order/pkg/event"
	"github.com/Alturino/foodorder/order/pkg/status"
)

type Notification struct {
	Topic       string `json:"topic"`
	DeviceID    string `json:"deviceId"`
	OrderNumber int64  `json:"orderNumber"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

var statusTitles = map[status.Status]string{
	status.Confirmed:      "Order confirmed",
	status.Preparing:      "Your food is being prepared",
	status.OutForDelivery: "Out for delivery",
	status.Delivered:      "Delivered",
	status.Cancelled:      "Order cancelled",
}

// Render turns an order event into the notification shown to the device that
// placed the order.
func Render(msg pubsub.Message) (Notification, error) {
	switch msg.Topic {
	case pubsub.TopicOrderCreated:
		e := event.OrderCreated{}
		if err := msg.Decode(&e); err != nil {
			return Notification{}, fmt.Errorf("failed decoding %s with error=%w", msg.Topic, err)
		}
		return Notification{
			Topic:       msg.Topic,
			DeviceID:    e.DeviceID,
			OrderNumber: e.OrderNumber,
			Title:       "Order placed",
			Body: fmt.Sprintf(
				"Thanks %s, order #%d with %d items totalling %s was received",
				e.CustomerName, e.OrderNumber, e.ItemCount, e.GrandTotal.StringFixed(2),
			),
		}, nil
	case pubsub.TopicOrderStatus:
		e := event.OrderStatusChanged{}
		if err := msg.Decode(&e); err != nil {
			return Notification{}, fmt.Errorf("failed decoding %s with error=%w", msg.Topic, err)
		}
		title, ok := statusTitles[e.To]
		if !ok {
			title = "Order update"
		}
		return Notification{
			Topic:       msg.Topic,
			DeviceID:    e.DeviceID,
			OrderNumber: e.OrderNumber,
			Title:       title,
			Body:        fmt.Sprintf("Order #%d moved from %s to %s", e.OrderNumber, e.From, e.To),
		}, nil
	default:
		return Notification{}, fmt.Errorf("unknown topic=%s", msg.Topic)
	}
}

type Sink interface {
	Send(c context.Context, n Notification) error
}

// LogSink writes each notification as one structured log line.
type LogSink struct{}

func (LogSink) Send(c context.Context, n Notification) error {
	zerolog.Ctx(c).
		Info().
		Str(log.KeyTopic, n.Topic).
		Str(log.KeyDeviceID, n.DeviceID).
		Int64(log.KeyOrderNumber, n.OrderNumber).
		Str("title", n.Title).
		Str("body", n.Body).
		Msg("notification")
	return nil
}
