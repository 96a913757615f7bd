package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Alturino/foodorder/order/pkg/response"
)

const handoffBaseURL = "https://wa.me/"

// HandoffMessage is the plain text order summary sent to the restaurant over
// the messaging app.
func HandoffMessage(order response.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%d\n", order.OrderNumber)
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\nAddress: %s, %s, %s\n",
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Address,
		order.Village,
		order.District,
	)
	b.WriteString("\n")
	for _, item := range order.Items {
		name := item.Name
		if item.Size != "" {
			name = fmt.Sprintf("%s (%s)", item.Name, item.Size)
		}
		fmt.Fprintf(&b, "%dx %s @ %s\n", item.Quantity, name, item.Price.StringFixed(2))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery fee: %s\n", order.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Platform fee: %s\n", order.PlatformFee.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s", order.GrandTotal.StringFixed(2))
	if order.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", order.Note)
	}
	return b.String()
}

// HandoffURL opens a chat with phone prefilled with the order summary. Only
// the digits of phone are kept.
func HandoffURL(phone string, order response.Order) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return handoffBaseURL + digits + "?text=" + url.QueryEscape(HandoffMessage(order))
}
