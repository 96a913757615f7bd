package repository

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/order/pkg/request"
	"github.com/Alturino/foodorder/order/pkg/response"
	"github.com/Alturino/foodorder/order/pkg/status"
)

func Numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		NaN:              false,
		Valid:            true,
	}
}

func Decimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func (o Order) ResponseOrder() (response.Order, error) {
	items := []response.OrderItem{}
	if err := json.Unmarshal(o.Items, &items); err != nil {
		return response.Order{}, fmt.Errorf("failed unmarshaling order items with error=%w", err)
	}
	return response.Order{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		DeviceID:    o.DeviceID,
		Customer: request.Customer{
			Name:    o.CustomerName,
			Phone:   o.CustomerPhone,
			Address: o.CustomerAddress,
		},
		Note:        o.Note,
		Items:       items,
		District:    o.District,
		Village:     o.Village,
		Subtotal:    Decimal(o.Subtotal),
		DeliveryFee: Decimal(o.DeliveryFee),
		PlatformFee: Decimal(o.PlatformFee),
		GrandTotal:  Decimal(o.GrandTotal),
		Status:      status.Status(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}, nil
}
