package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Alturino/foodorder/internal/log"
)

var _ PubSub = (*Redis)(nil)

type Redis struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[int64]
}

// NewRedis publishes through a circuit breaker: after five consecutive
// failures publishing short-circuits for openTimeout.
func NewRedis(client *redis.Client, openTimeout time.Duration) *Redis {
	breaker := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:    "redis-publisher",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Redis{client: client, breaker: breaker}
}

func (p *Redis) Publish(c context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed marshaling payload with error=%w", err)
	}

	_, err = p.breaker.Execute(func() (int64, error) {
		return p.client.Publish(c, topic, b).Result()
	})
	if err != nil {
		return fmt.Errorf("failed publishing to topic=%s with error=%w", topic, err)
	}
	return nil
}

// Subscribe returns once redis has confirmed the subscription. Handlers run
// on a single goroutine per subscription, in delivery order.
func (p *Redis) Subscribe(c context.Context, topic string, handler Handler) (Unsubscribe, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "pubsub Redis Subscribe").
		Str(log.KeyTopic, topic).
		Logger()

	sub := p.client.Subscribe(c, topic)
	if _, err := sub.Receive(c); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed subscribing to topic=%s with error=%w", topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for m := range sub.Channel() {
			handler(c, Message{Topic: m.Channel, Payload: json.RawMessage(m.Payload)})
		}
		logger.Info().Msg("subscription channel closed")
	}()

	return func() error {
		err := sub.Close()
		<-done
		if err != nil && !errors.Is(err, redis.ErrClosed) {
			return fmt.Errorf("failed closing subscription with error=%w", err)
		}
		return nil
	}, nil
}

func (p *Redis) BreakerState() gobreaker.State {
	return p.breaker.State()
}
