// Package pubsub carries order events between the order service and its
// subscribers (the notification service, order tracking screens).
package pubsub

import (
	"context"
	"encoding/json"
)

const (
	TopicOrderCreated = "order.created"
	TopicOrderStatus  = "order.status"
)

type Message struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}

type Handler func(c context.Context, msg Message)

// Unsubscribe stops delivery to the handler it was returned with.
type Unsubscribe func() error

type Publisher interface {
	Publish(c context.Context, topic string, payload any) error
}

type Subscriber interface {
	Subscribe(c context.Context, topic string, handler Handler) (Unsubscribe, error)
}

type PubSub interface {
	Publisher
	Subscriber
}
