package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
)

type Cart struct {
	Items     []ledger.LineItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     decimal.Decimal   `json:"total"`
}

// Summary is the checkout review of a cart. ReadyForCheckout is false while
// the cart is empty or no delivery location is selected.
type Summary struct {
	Items            []ledger.LineItem          `json:"items"`
	Location         *location.DeliveryLocation `json:"location"`
	Breakdown        pricing.Breakdown          `json:"breakdown"`
	ReadyForCheckout bool                       `json:"readyForCheckout"`
}

func CartFromLedger(l *ledger.Ledger) Cart {
	return Cart{Items: l.Items(), ItemCount: l.ItemCount(), Total: l.Total()}
}
