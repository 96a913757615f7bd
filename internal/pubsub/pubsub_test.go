package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderEvent struct {
	OrderNumber int64  `json:"orderNumber"`
	Status      string `json:"status"`
}

type recorder struct {
	m    sync.Mutex
	msgs []Message
}

func (r *recorder) handle(_ context.Context, msg Message) {
	r.m.Lock()
	defer r.m.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) received() []Message {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestMemory_PublishSubscribe(t *testing.T) {
	c := context.Background()
	ps := NewMemory()
	rec := &recorder{}

	unsubscribe, err := ps.Subscribe(c, TopicOrderCreated, rec.handle)
	require.NoError(t, err)

	require.NoError(t, ps.Publish(c, TopicOrderCreated, orderEvent{OrderNumber: 7, Status: "pending"}))
	require.NoError(t, ps.Publish(c, TopicOrderStatus, orderEvent{OrderNumber: 7, Status: "confirmed"}))

	msgs := rec.received()
	require.Len(t, msgs, 1, "only the subscribed topic is delivered")
	assert.Equal(t, TopicOrderCreated, msgs[0].Topic)

	var got orderEvent
	require.NoError(t, msgs[0].Decode(&got))
	assert.Equal(t, orderEvent{OrderNumber: 7, Status: "pending"}, got)

	require.NoError(t, unsubscribe())
	require.NoError(t, ps.Publish(c, TopicOrderCreated, orderEvent{OrderNumber: 8}))
	assert.Len(t, rec.received(), 1, "no delivery after unsubscribe")
}

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestRedis_PublishSubscribe(t *testing.T) {
	c := context.Background()
	ps, _ := setupTestRedis(t)
	rec := &recorder{}

	unsubscribe, err := ps.Subscribe(c, TopicOrderStatus, rec.handle)
	require.NoError(t, err)

	require.NoError(t, ps.Publish(c, TopicOrderStatus, orderEvent{OrderNumber: 3, Status: "preparing"}))

	require.Eventually(t, func() bool {
		return len(rec.received()) == 1
	}, time.Second, 10*time.Millisecond, "message was not delivered")

	var got orderEvent
	require.NoError(t, rec.received()[0].Decode(&got))
	assert.Equal(t, int64(3), got.OrderNumber)
	assert.Equal(t, "preparing", got.Status)

	require.NoError(t, unsubscribe())
}

func TestRedis_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c := context.Background()
	ps, mr := setupTestRedis(t)
	mr.Close()

	for range 5 {
		require.Error(t, ps.Publish(c, TopicOrderCreated, orderEvent{OrderNumber: 1}))
	}
	assert.Equal(t, gobreaker.StateOpen, ps.BreakerState())

	err := ps.Publish(c, TopicOrderCreated, orderEvent{OrderNumber: 1})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
