package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/foodorder/cart/internal/otel"
	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/cart/pkg/response"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/log"
)

// CartService serves the cart of every device from a shared store. Each call
// restores the device's ledger from its snapshot, so concurrent writers on
// one device resolve last write wins.
type CartService struct {
	store     kvstore.Store
	directory *location.Directory
	fees      pricing.FeeSchedule
}

func NewCartService(
	store kvstore.Store,
	directory *location.Directory,
	fees pricing.FeeSchedule,
) CartService {
	return CartService{store: store, directory: directory, fees: fees}
}

func (svc CartService) ledger(c context.Context, deviceID string) *ledger.Ledger {
	return ledger.Load(c, kvstore.ForDevice(svc.store, deviceID))
}

func (svc CartService) selector(deviceID string) location.Selector {
	return location.NewSelector(svc.directory, kvstore.ForDevice(svc.store, deviceID))
}

func (svc CartService) FindCart(c context.Context, deviceID string) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCart").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProcess, "loading cart").
		Logger()

	logger.Info().Msg("loading cart")
	c = logger.WithContext(c)
	cart := response.CartFromLedger(svc.ledger(c, deviceID))
	logger.Info().Int(log.KeyItemCount, cart.ItemCount).Msg("loaded cart")

	return cart
}

func (svc CartService) AddItem(
	c context.Context,
	deviceID string,
	in ledger.AddItemInput,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem", trace.WithAttributes(
		attribute.String(log.KeyProductID, in.ProductID),
		attribute.Int(log.KeyQuantity, in.Quantity),
	))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProductID, in.ProductID).
		Int(log.KeyQuantity, in.Quantity).
		Logger()

	c = logger.WithContext(c)
	l := svc.ledger(c, deviceID)

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	if err := l.AddItem(c, in); err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Int(log.KeyItemCount, l.ItemCount()).Msg("added item")

	return response.CartFromLedger(l), nil
}

func (svc CartService) UpdateQuantity(
	c context.Context,
	deviceID string,
	lineID string,
	quantity int,
) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity", trace.WithAttributes(
		attribute.String(log.KeyLineID, lineID),
		attribute.Int(log.KeyQuantity, quantity),
	))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateQuantity").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyLineID, lineID).
		Int(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "updating quantity").
		Logger()

	c = logger.WithContext(c)
	l := svc.ledger(c, deviceID)

	logger.Info().Msg("updating quantity")
	l.UpdateQuantity(c, lineID, quantity)
	logger.Info().Int(log.KeyItemCount, l.ItemCount()).Msg("updated quantity")

	return response.CartFromLedger(l)
}

func (svc CartService) RemoveItem(c context.Context, deviceID string, lineID string) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem", trace.WithAttributes(
		attribute.String(log.KeyLineID, lineID),
	))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyLineID, lineID).
		Str(log.KeyProcess, "removing item").
		Logger()

	c = logger.WithContext(c)
	l := svc.ledger(c, deviceID)

	logger.Info().Msg("removing item")
	l.RemoveItem(c, lineID)
	logger.Info().Msg("removed item")

	return response.CartFromLedger(l)
}

func (svc CartService) ClearCart(c context.Context, deviceID string) {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	svc.ledger(c, deviceID).Clear(c)
	logger.Info().Msg("cleared cart")
}

// Summary prices the cart against the selected delivery location with the
// same fee schedule the order service charges at checkout.
func (svc CartService) Summary(c context.Context, deviceID string) response.Summary {
	c, span := otel.Tracer.Start(c, "CartService Summary")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Summary").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProcess, "calculating breakdown").
		Logger()

	c = logger.WithContext(c)
	items := svc.ledger(c, deviceID).Items()
	loc, err := svc.selector(deviceID).Resolve(c)
	if err != nil {
		err = fmt.Errorf("failed resolving delivery location with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}

	logger.Info().Msg("calculating breakdown")
	breakdown := svc.fees.Calculate(items, loc)
	logger.Info().Any(log.KeyBreakdown, breakdown).Msg("calculated breakdown")

	return response.Summary{
		Items:            items,
		Location:         loc,
		Breakdown:        breakdown,
		ReadyForCheckout: len(items) > 0 && loc != nil,
	}
}

func (svc CartService) Districts() []location.District {
	return svc.directory.Districts()
}

func (svc CartService) SelectLocation(
	c context.Context,
	deviceID string,
	district string,
	village string,
) (location.DeliveryLocation, error) {
	c, span := otel.Tracer.Start(c, "CartService SelectLocation")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService SelectLocation").
		Str(log.KeyDeviceID, deviceID).
		Str(log.KeyProcess, "selecting location").
		Logger()

	logger.Info().Msgf("selecting district=%s village=%s", district, village)
	c = logger.WithContext(c)
	loc, err := svc.selector(deviceID).Select(c, district, village)
	if err != nil {
		err = fmt.Errorf("failed selecting location with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return location.DeliveryLocation{}, err
	}
	logger.Info().Any(log.KeyLocation, loc).Msg("selected location")

	return loc, nil
}

func (svc CartService) CurrentLocation(c context.Context, deviceID string) *location.DeliveryLocation {
	c, span := otel.Tracer.Start(c, "CartService CurrentLocation")
	defer span.End()
	return svc.selector(deviceID).Current(c)
}

func (svc CartService) ClearLocation(c context.Context, deviceID string) {
	c, span := otel.Tracer.Start(c, "CartService ClearLocation")
	defer span.End()
	svc.selector(deviceID).Clear(c)
}
