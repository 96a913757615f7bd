package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/kvstore"
)

func TestPlatformFee(t *testing.T) {
	fees := DefaultFeeSchedule()

	tests := []struct {
		units int
		want  string
	}{
		{units: -1, want: "0"},
		{units: 0, want: "0"},
		{units: 1, want: "10"},
		{units: 2, want: "15"},
		{units: 3, want: "20"},
		{units: 5, want: "30"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fees.PlatformFee(tt.units).String(), "units=%d", tt.units)
	}
}

func TestNewFeeSchedule(t *testing.T) {
	fees := NewFeeSchedule(config.Pricing{FirstUnitFee: 7, AdditionalUnitFee: 2})
	assert.Equal(t, "7", fees.PlatformFee(1).String())
	assert.Equal(t, "11", fees.PlatformFee(3).String())
}

func TestCalculate(t *testing.T) {
	c := context.Background()
	l := ledger.New(kvstore.NewMemory())
	require.NoError(t, l.AddItem(c, ledger.AddItemInput{ProductID: "pizza-1", Name: "Pizza", Price: decimal.NewFromInt(80), Quantity: 1}))
	require.NoError(t, l.AddItem(c, ledger.AddItemInput{ProductID: "soda-1", Name: "Soda", Price: decimal.NewFromInt(15), Quantity: 2}))

	t.Run("with location", func(t *testing.T) {
		loc := &location.DeliveryLocation{District: "Central", Village: "Riverside", DeliveryFee: decimal.NewFromInt(20)}
		b := DefaultFeeSchedule().Calculate(l.Items(), loc)

		assert.Equal(t, 3, b.ItemCount)
		assert.Equal(t, "110", b.Subtotal.String())
		assert.Equal(t, "20", b.DeliveryFee.String())
		assert.Equal(t, "20", b.PlatformFee.String())
		assert.Equal(t, "150", b.GrandTotal.String())
	})

	t.Run("without location", func(t *testing.T) {
		b := DefaultFeeSchedule().Calculate(l.Items(), nil)
		assert.True(t, b.DeliveryFee.IsZero())
		assert.Equal(t, "130", b.GrandTotal.String())
	})

	t.Run("empty cart", func(t *testing.T) {
		b := DefaultFeeSchedule().Calculate(nil, nil)
		assert.Equal(t, 0, b.ItemCount)
		assert.True(t, b.PlatformFee.IsZero())
		assert.True(t, b.GrandTotal.IsZero())
	})
}
