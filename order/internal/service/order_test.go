package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/internal/config"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/order/internal/repository"
	"github.com/Alturino/foodorder/order/pkg/event"
	"github.com/Alturino/foodorder/order/pkg/request"
	"github.com/Alturino/foodorder/order/pkg/status"
)

type fakeRepository struct {
	mu     sync.Mutex
	next   int64
	orders map[int64]repository.Order
	reads  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: map[int64]repository.Order{}}
}

func (r *fakeRepository) InsertOrder(_ context.Context, arg repository.InsertOrderParams) (repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	now := time.Now().UTC()
	o := repository.Order{
		ID:              arg.ID,
		OrderNumber:     r.next,
		DeviceID:        arg.DeviceID,
		CustomerName:    arg.CustomerName,
		CustomerPhone:   arg.CustomerPhone,
		CustomerAddress: arg.CustomerAddress,
		Note:            arg.Note,
		Items:           arg.Items,
		District:        arg.District,
		Village:         arg.Village,
		Subtotal:        arg.Subtotal,
		DeliveryFee:     arg.DeliveryFee,
		PlatformFee:     arg.PlatformFee,
		GrandTotal:      arg.GrandTotal,
		Status:          arg.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.orders[o.OrderNumber] = o
	return o, nil
}

func (r *fakeRepository) FindOrderByNumber(_ context.Context, orderNumber int64) (repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	o, ok := r.orders[orderNumber]
	if !ok {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeRepository) FindOrdersByDevice(_ context.Context, deviceID string) ([]repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := []repository.Order{}
	for n := r.next; n > 0; n-- {
		if o, ok := r.orders[n]; ok && o.DeviceID == deviceID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (r *fakeRepository) UpdateOrderStatus(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[arg.OrderNumber]
	if !ok || o.Status != arg.From {
		return repository.Order{}, inErrors.ErrInvalidTransition
	}
	o.Status = arg.To
	o.UpdatedAt = time.Now().UTC()
	r.orders[arg.OrderNumber] = o
	return o, nil
}

type fixture struct {
	svc      *OrderService
	repo     *fakeRepository
	sessions *kvstore.Memory
	events   *pubsub.Memory
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newFakeRepository()
	sessions := kvstore.NewMemory()
	events := pubsub.NewMemory()
	directory := location.NewDirectory([]config.District{
		{Name: "Central", Villages: []config.Village{{Name: "Riverside", DeliveryFee: 20}}},
	})
	svc := NewOrderService(repo, sessions, client, events, Config{
		Fees:         pricing.DefaultFeeSchedule(),
		Directory:    directory,
		HandoffPhone: "+1 555 0100 200",
	})
	return fixture{svc: svc, repo: repo, sessions: sessions, events: events, mr: mr}
}

func (f fixture) fillCart(t *testing.T, deviceID string, selectLocation bool) {
	t.Helper()
	c := context.Background()
	store := kvstore.ForDevice(f.sessions, deviceID)
	cart := ledger.New(store)
	require.NoError(t, cart.AddItem(c, ledger.AddItemInput{ProductID: "pizza-1", Name: "Pizza", Price: decimal.NewFromInt(80), Quantity: 1}))
	require.NoError(t, cart.AddItem(c, ledger.AddItemInput{ProductID: "soda-1", Name: "Soda", Size: "L", Price: decimal.NewFromInt(15), Quantity: 2}))
	if selectLocation {
		directory := f.svc.cfg.Directory
		_, err := location.NewSelector(directory, store).Select(c, "Central", "Riverside")
		require.NoError(t, err)
	}
}

var checkoutRequest = request.Checkout{
	Customer: request.Customer{Name: "Ana", Phone: "+15550100111", Address: "1 Market Square"},
	Note:     "ring twice",
}

func TestCheckout(t *testing.T) {
	c := context.Background()
	f := newFixture(t)
	f.fillCart(t, "device-1", true)

	created := []event.OrderCreated{}
	_, err := f.events.Subscribe(c, pubsub.TopicOrderCreated, func(_ context.Context, msg pubsub.Message) {
		e := event.OrderCreated{}
		require.NoError(t, msg.Decode(&e))
		created = append(created, e)
	})
	require.NoError(t, err)

	res, err := f.svc.Checkout(c, "device-1", checkoutRequest)
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, int64(1), order.OrderNumber)
	assert.Equal(t, status.Pending, order.Status)
	assert.Equal(t, "110", order.Subtotal.String())
	assert.Equal(t, "20", order.DeliveryFee.String())
	assert.Equal(t, "20", order.PlatformFee.String())
	assert.Equal(t, "150", order.GrandTotal.String())
	assert.Equal(t, "Riverside", order.Village)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "L", order.Items[1].Size)
	assert.Contains(t, res.HandoffURL, "https://wa.me/15550100200?text=")

	require.Len(t, created, 1)
	assert.Equal(t, order.OrderNumber, created[0].OrderNumber)
	assert.Equal(t, 3, created[0].ItemCount)

	cart := ledger.Load(c, kvstore.ForDevice(f.sessions, "device-1"))
	assert.True(t, cart.IsEmpty(), "cart is cleared after checkout")

	profile := f.svc.Profile(c, "device-1")
	require.NotNil(t, profile)
	assert.Equal(t, checkoutRequest.Customer, *profile)
	assert.Nil(t, f.svc.Profile(c, "device-2"))

	assert.True(t, f.mr.Exists("order:1"), "new order is cached")
}

func TestCheckoutRejectsIncompleteCart(t *testing.T) {
	c := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
		require.ErrorIs(t, err, inErrors.ErrEmptyCart)
	})

	t.Run("no location", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t, "device-1", false)
		_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
		require.ErrorIs(t, err, inErrors.ErrMissingLocation)

		cart := ledger.Load(c, kvstore.ForDevice(f.sessions, "device-1"))
		assert.Equal(t, 3, cart.ItemCount(), "failed checkout keeps the cart")
	})

	t.Run("location no longer offered", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t, "device-1", true)
		f.svc.cfg.Directory = location.NewDirectory([]config.District{
			{Name: "Hillside", Villages: []config.Village{{Name: "Upper Ridge", DeliveryFee: 30}}},
		})
		_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
		require.ErrorIs(t, err, inErrors.ErrUnknownLocation)
		assert.Empty(t, f.repo.orders)
	})
}

func TestFindOrderUsesCache(t *testing.T) {
	c := context.Background()
	f := newFixture(t)
	f.fillCart(t, "device-1", true)
	_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
	require.NoError(t, err)

	order, err := f.svc.FindOrder(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "150", order.GrandTotal.String())
	assert.Equal(t, 0, f.repo.reads, "served from cache")

	f.mr.FlushAll()
	_, err = f.svc.FindOrder(c, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.reads)
	assert.True(t, f.mr.Exists("order:1"), "cache is refilled on miss")

	_, err = f.svc.FindOrder(c, 42)
	require.ErrorIs(t, err, inErrors.ErrOrderNotFound)
}

func TestTrack(t *testing.T) {
	c := context.Background()
	f := newFixture(t)
	f.fillCart(t, "device-1", true)
	_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
	require.NoError(t, err)

	tracking, err := f.svc.Track(c, 1)
	require.NoError(t, err)
	require.NotEmpty(t, tracking.Timeline)
	assert.True(t, tracking.Timeline[0].Current)
	assert.False(t, tracking.Timeline[1].Reached)
}

func TestListOrders(t *testing.T) {
	c := context.Background()
	f := newFixture(t)
	for range 2 {
		f.fillCart(t, "device-1", true)
		_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
		require.NoError(t, err)
	}
	f.fillCart(t, "device-2", true)
	_, err := f.svc.Checkout(c, "device-2", checkoutRequest)
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(c, "device-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].OrderNumber, "newest first")

	orders, err = f.svc.ListOrders(c, "device-3")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateStatus(t *testing.T) {
	c := context.Background()
	f := newFixture(t)
	f.fillCart(t, "device-1", true)
	_, err := f.svc.Checkout(c, "device-1", checkoutRequest)
	require.NoError(t, err)

	changes := []event.OrderStatusChanged{}
	_, err = f.events.Subscribe(c, pubsub.TopicOrderStatus, func(_ context.Context, msg pubsub.Message) {
		e := event.OrderStatusChanged{}
		require.NoError(t, msg.Decode(&e))
		changes = append(changes, e)
	})
	require.NoError(t, err)

	order, err := f.svc.UpdateStatus(c, 1, string(status.Preparing))
	require.NoError(t, err)
	assert.Equal(t, status.Preparing, order.Status)
	assert.False(t, f.mr.Exists("order:1"), "cached order is evicted")

	found, err := f.svc.FindOrder(c, 1)
	require.NoError(t, err)
	assert.Equal(t, status.Preparing, found.Status)

	require.Len(t, changes, 1)
	assert.Equal(t, status.Pending, changes[0].From)
	assert.Equal(t, status.Preparing, changes[0].To)
	assert.Equal(t, "device-1", changes[0].DeviceID)

	tests := []struct {
		name    string
		number  int64
		target  string
		wantErr error
	}{
		{name: "unknown status", number: 1, target: "lost", wantErr: inErrors.ErrInvalidStatus},
		{name: "backwards", number: 1, target: string(status.Confirmed), wantErr: inErrors.ErrInvalidTransition},
		{name: "missing order", number: 9, target: string(status.Delivered), wantErr: inErrors.ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(c, tt.number, tt.target)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = f.svc.UpdateStatus(c, 1, string(status.Cancelled))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(c, 1, string(status.Delivered))
	require.ErrorIs(t, err, inErrors.ErrInvalidTransition, "cancelled is terminal")
	assert.Len(t, changes, 2)
}

func TestParseOrderNumber(t *testing.T) {
	n, err := ParseOrderNumber("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	for _, s := range []string{"", "abc", "0", "-3"} {
		_, err := ParseOrderNumber(s)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound, s)
	}
}
