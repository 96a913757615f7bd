// Package pricing derives the checkout totals of a cart. Everything here is a
// pure function of its inputs.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/internal/config"
)

type FeeSchedule struct {
	FirstUnitFee      decimal.Decimal `json:"firstUnitFee"`
	AdditionalUnitFee decimal.Decimal `json:"additionalUnitFee"`
}

type Breakdown struct {
	ItemCount   int             `json:"itemCount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		FirstUnitFee:      decimal.NewFromInt(10),
		AdditionalUnitFee: decimal.NewFromInt(5),
	}
}

func NewFeeSchedule(cfg config.Pricing) FeeSchedule {
	return FeeSchedule{
		FirstUnitFee:      decimal.NewFromInt(cfg.FirstUnitFee),
		AdditionalUnitFee: decimal.NewFromInt(cfg.AdditionalUnitFee),
	}
}

// PlatformFee charges the first unit at FirstUnitFee and every further unit
// at AdditionalUnitFee. Zero units cost nothing.
func (f FeeSchedule) PlatformFee(units int) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	return f.FirstUnitFee.Add(f.AdditionalUnitFee.Mul(decimal.NewFromInt(int64(units - 1))))
}

// Calculate yields a zero delivery fee when loc is nil. Callers submitting an
// order must reject a nil location instead of relying on that.
func (f FeeSchedule) Calculate(items []ledger.LineItem, loc *location.DeliveryLocation) Breakdown {
	b := Breakdown{Subtotal: decimal.Zero, DeliveryFee: decimal.Zero}
	for _, item := range items {
		b.ItemCount += item.Quantity
		b.Subtotal = b.Subtotal.Add(item.LineTotal())
	}
	if loc != nil {
		b.DeliveryFee = loc.DeliveryFee
	}
	b.PlatformFee = f.PlatformFee(b.ItemCount)
	b.GrandTotal = b.Subtotal.Add(b.DeliveryFee).Add(b.PlatformFee)
	return b
}
