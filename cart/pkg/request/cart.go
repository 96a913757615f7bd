package request

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
)

type AddCartItem struct {
	ProductID      string          `validate:"required" json:"productId"`
	Name           string          `validate:"required" json:"name"`
	Price          decimal.Decimal `validate:"price"    json:"price"`
	Quantity       int             `validate:"gte=1"    json:"quantity"`
	Image          string          `                    json:"image,omitempty"`
	Size           string          `                    json:"size,omitempty"`
	RestaurantID   string          `                    json:"restaurantId,omitempty"`
	RestaurantName string          `                    json:"restaurantName,omitempty"`
}

func (r AddCartItem) ToInput() ledger.AddItemInput {
	return ledger.AddItemInput{
		ProductID:      r.ProductID,
		Name:           r.Name,
		Price:          r.Price,
		Quantity:       r.Quantity,
		Image:          r.Image,
		Size:           r.Size,
		RestaurantID:   r.RestaurantID,
		RestaurantName: r.RestaurantName,
	}
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
type UpdateQuantity struct {
	Quantity *int `validate:"required" json:"quantity"`
}

type SelectLocation struct {
	District string `validate:"required" json:"district"`
	Village  string `validate:"required" json:"village"`
}
