package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/metric"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/order/internal/otel"
	"github.com/Alturino/foodorder/order/internal/repository"
	"github.com/Alturino/foodorder/order/pkg/event"
	"github.com/Alturino/foodorder/order/pkg/request"
	"github.com/Alturino/foodorder/order/pkg/response"
	"github.com/Alturino/foodorder/order/pkg/status"
)

const (
	ProfileKey = "user_profile"

	cacheKeyOrder   = "order:%d"
	cacheBaseTTL    = 15 * time.Minute
	cacheJitterMins = 5
)

type OrderRepository interface {
	InsertOrder(c context.Context, arg repository.InsertOrderParams) (repository.Order, error)
	FindOrderByNumber(c context.Context, orderNumber int64) (repository.Order, error)
	FindOrdersByDevice(c context.Context, deviceID string) ([]repository.Order, error)
	UpdateOrderStatus(c context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error)
}

type Config struct {
	Fees         pricing.FeeSchedule
	Directory    *location.Directory
	HandoffPhone string
}

type OrderService struct {
	repo      OrderRepository
	sessions  kvstore.Store
	cache     *redis.Client
	publisher pubsub.Publisher
	cfg       Config
	sfg       singleflight.Group
}

func NewOrderService(
	repo OrderRepository,
	sessions kvstore.Store,
	cache *redis.Client,
	publisher pubsub.Publisher,
	cfg Config,
) *OrderService {
	return &OrderService{
		repo:      repo,
		sessions:  sessions,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Checkout turns the device's cart into an order. The cart is cleared only
// once the order is stored; publishing and profile saving are best effort.
func (s *OrderService) Checkout(
	c context.Context,
	deviceID string,
	param request.Checkout,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "OrderService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Checkout").
		Str(log.KeyDeviceID, deviceID).
		Logger()

	sessions := kvstore.ForDevice(s.sessions, deviceID)

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	c = logger.WithContext(c)
	cart := ledger.Load(c, sessions)
	if cart.IsEmpty() {
		err := inErrors.ErrEmptyCart
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	items := cart.Items()
	logger.Info().Int(log.KeyItemCount, cart.ItemCount()).Msg("loaded cart")

	logger = logger.With().Str(log.KeyProcess, "resolving delivery location").Logger()
	logger.Info().Msg("resolving delivery location")
	loc, err := location.NewSelector(s.cfg.Directory, sessions).Resolve(c)
	if err != nil {
		err = fmt.Errorf("failed resolving delivery location with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	if loc == nil {
		err := inErrors.ErrMissingLocation
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Info().Any(log.KeyLocation, loc).Msg("resolved delivery location")

	breakdown := s.cfg.Fees.Calculate(items, loc)
	logger = logger.With().Any(log.KeyBreakdown, breakdown).Logger()

	orderItems := make([]response.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, response.OrderItem{
			Name:     item.Name,
			Size:     item.Size,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	itemsJson, err := json.Marshal(orderItems)
	if err != nil {
		err = fmt.Errorf("failed marshaling order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "inserting order to database").Logger()
	logger.Info().Msg("inserting order to database")
	inserted, err := s.repo.InsertOrder(c, repository.InsertOrderParams{
		ID:              uuid.New(),
		DeviceID:        deviceID,
		CustomerName:    param.Customer.Name,
		CustomerPhone:   param.Customer.Phone,
		CustomerAddress: param.Customer.Address,
		Note:            param.Note,
		Items:           itemsJson,
		District:        loc.District,
		Village:         loc.Village,
		Subtotal:        repository.Numeric(breakdown.Subtotal),
		DeliveryFee:     repository.Numeric(breakdown.DeliveryFee),
		PlatformFee:     repository.Numeric(breakdown.PlatformFee),
		GrandTotal:      repository.Numeric(breakdown.GrandTotal),
		Status:          string(status.Pending),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order to database with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	order, err := inserted.ResponseOrder()
	if err != nil {
		err = fmt.Errorf("failed mapping order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().Int64(log.KeyOrderNumber, order.OrderNumber).Logger()
	span.SetAttributes(attribute.Int64(log.KeyOrderNumber, order.OrderNumber))
	logger.Info().Msg("inserted order to database")
	metric.OrdersSubmitted.Inc()

	c = logger.WithContext(c)
	cart.Clear(c)
	s.saveProfile(c, sessions, param.Customer)
	s.cacheOrder(c, order)
	s.publish(c, pubsub.TopicOrderCreated, event.OrderCreated{
		OrderNumber:  order.OrderNumber,
		DeviceID:     deviceID,
		CustomerName: order.Customer.Name,
		ItemCount:    breakdown.ItemCount,
		GrandTotal:   order.GrandTotal,
		CreatedAt:    order.CreatedAt,
	})

	return response.Checkout{
		Order:      order,
		HandoffURL: HandoffURL(s.cfg.HandoffPhone, order),
	}, nil
}

// Profile returns the customer details saved by the device's last checkout,
// or nil when there are none.
func (s *OrderService) Profile(c context.Context, deviceID string) *request.Customer {
	c, span := otel.Tracer.Start(c, "OrderService Profile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Profile").
		Str(log.KeyStoreKey, ProfileKey).
		Logger()

	raw, err := kvstore.ForDevice(s.sessions, deviceID).Get(c, ProfileKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn().Err(err).Msgf("failed reading profile with error=%s", err.Error())
		}
		return nil
	}
	customer := request.Customer{}
	if err := json.Unmarshal([]byte(raw), &customer); err != nil {
		logger.Warn().Err(err).Msgf("failed unmarshaling profile with error=%s", err.Error())
		return nil
	}
	return &customer
}

// FindOrder reads through the redis cache. Concurrent misses for one order
// share a single database read.
func (s *OrderService) FindOrder(c context.Context, orderNumber int64) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrder", trace.WithAttributes(
		attribute.Int64(log.KeyOrderNumber, orderNumber),
	))
	defer span.End()

	cacheKey := fmt.Sprintf(cacheKeyOrder, orderNumber)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrder").
		Int64(log.KeyOrderNumber, orderNumber).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	v, err, shared := s.sfg.Do(cacheKey, func() (interface{}, error) {
		logger := logger.With().Str(log.KeyProcess, "finding order in cache").Logger()
		logger.Info().Msg("finding order in cache")
		cached, err := s.cache.Get(c, cacheKey).Bytes()
		if err == nil {
			order := response.Order{}
			if err := json.Unmarshal(cached, &order); err == nil {
				logger.Info().Msg("found order in cache")
				return order, nil
			}
			logger.Warn().Msg("discarding unreadable cached order")
		} else if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msgf("failed reading cache with error=%s", err.Error())
		}

		logger = logger.With().Str(log.KeyProcess, "finding order in database").Logger()
		logger.Info().Msg("finding order in database")
		found, err := s.repo.FindOrderByNumber(c, orderNumber)
		if err != nil {
			return nil, err
		}
		order, err := found.ResponseOrder()
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("found order in database")

		s.cacheOrder(logger.WithContext(c), order)
		return order, nil
	})
	if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))

	return v.(response.Order), nil
}

func (s *OrderService) Track(c context.Context, orderNumber int64) (response.Tracking, error) {
	order, err := s.FindOrder(c, orderNumber)
	if err != nil {
		return response.Tracking{}, err
	}
	return response.Tracking{Order: order, Timeline: status.Timeline(order.Status)}, nil
}

// ListOrders returns the device's orders, newest first.
func (s *OrderService) ListOrders(c context.Context, deviceID string) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService ListOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService ListOrders").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProcess, "finding orders by device").
		Logger()

	logger.Info().Msg("finding orders by device")
	found, err := s.repo.FindOrdersByDevice(c, deviceID)
	if err != nil {
		err = fmt.Errorf("failed finding orders by device with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	orders := make([]response.Order, 0, len(found))
	for _, o := range found {
		order, err := o.ResponseOrder()
		if err != nil {
			err = fmt.Errorf("failed mapping order with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		orders = append(orders, order)
	}
	logger.Info().Msgf("found %d orders", len(orders))

	return orders, nil
}

func (s *OrderService) UpdateStatus(
	c context.Context,
	orderNumber int64,
	target string,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService UpdateStatus", trace.WithAttributes(
		attribute.Int64(log.KeyOrderNumber, orderNumber),
		attribute.String(log.KeyOrderStatusTarget, target),
	))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService UpdateStatus").
		Int64(log.KeyOrderNumber, orderNumber).
		Str(log.KeyOrderStatusTarget, target).
		Logger()

	to, err := status.Parse(target)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding order in database").Logger()
	logger.Info().Msg("finding order in database")
	current, err := s.repo.FindOrderByNumber(c, orderNumber)
	if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	from := status.Status(current.Status)
	logger = logger.With().Str(log.KeyOrderStatus, string(from)).Logger()
	logger.Info().Msg("found order in database")

	if err := status.CanTransition(from, to); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "updating order status").Logger()
	logger.Info().Msg("updating order status")
	updated, err := s.repo.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
		OrderNumber: orderNumber,
		From:        string(from),
		To:          string(to),
	})
	if err != nil {
		err = fmt.Errorf("failed updating order status with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	order, err := updated.ResponseOrder()
	if err != nil {
		err = fmt.Errorf("failed mapping order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("updated order status")
	metric.OrderStatusChanges.WithLabelValues(string(to)).Inc()

	c = logger.WithContext(c)
	s.evictOrder(c, orderNumber)
	s.publish(c, pubsub.TopicOrderStatus, event.OrderStatusChanged{
		OrderNumber: orderNumber,
		DeviceID:    order.DeviceID,
		From:        from,
		To:          to,
		UpdatedAt:   order.UpdatedAt,
	})

	return order, nil
}

func (s *OrderService) saveProfile(c context.Context, sessions kvstore.Store, customer request.Customer) {
	logger := zerolog.Ctx(c).With().Str(log.KeyStoreKey, ProfileKey).Logger()
	b, err := json.Marshal(customer)
	if err == nil {
		err = sessions.Set(c, ProfileKey, string(b))
	}
	if err != nil {
		logger.Warn().Err(err).Msgf("failed saving profile with error=%s", err.Error())
		return
	}
	logger.Debug().Msg("saved profile")
}

func (s *OrderService) cacheOrder(c context.Context, order response.Order) {
	cacheKey := fmt.Sprintf(cacheKeyOrder, order.OrderNumber)
	logger := zerolog.Ctx(c).With().Str(log.KeyCacheKey, cacheKey).Logger()

	b, err := json.Marshal(order)
	if err != nil {
		logger.Warn().Err(err).Msgf("failed marshaling order with error=%s", err.Error())
		return
	}
	ttl := cacheBaseTTL + time.Duration(rand.IntN(cacheJitterMins))*time.Minute
	if err := s.cache.Set(c, cacheKey, b, ttl).Err(); err != nil {
		logger.Warn().Err(err).Msgf("failed caching order with error=%s", err.Error())
		return
	}
	logger.Debug().Dur("ttl", ttl).Msg("cached order")
}

func (s *OrderService) evictOrder(c context.Context, orderNumber int64) {
	cacheKey := fmt.Sprintf(cacheKeyOrder, orderNumber)
	if err := s.cache.Del(c, cacheKey).Err(); err != nil {
		zerolog.Ctx(c).
			Warn().
			Err(err).
			Str(log.KeyCacheKey, cacheKey).
			Msgf("failed evicting order with error=%s", err.Error())
	}
}

func (s *OrderService) publish(c context.Context, topic string, payload any) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTopic, topic).Logger()
	logger.Info().Msgf("publishing to topic=%s", topic)
	if err := s.publisher.Publish(c, topic, payload); err != nil {
		logger.Warn().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msgf("published to topic=%s", topic)
}

func ParseOrderNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: orderNumber=%s", inErrors.ErrOrderNotFound, s)
	}
	return n, nil
}
