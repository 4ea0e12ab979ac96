package orders

import (
	"fmt"
	"strings"
	"time"
)

// LineItem is one product entry within an order. Option is the chosen
// component when the product is a set; zero/absent otherwise. Name and price
// are captured at order time so the ledger stays readable after catalog edits.
type LineItem struct {
	ID       int64   `json:"id"`
	Quantity int     `json:"quantity"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Option   int64   `json:"option,omitempty"`
}

type Order struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	Note      string     `json:"note,omitempty"`
	Items     []LineItem `json:"orderItems"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PlaceOrderInput mirrors the save-order request body.
type PlaceOrderInput struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	Note      string     `json:"note"`
	Items     []LineItem `json:"orderItems"`
}

// Validate rejects malformed input before any store access.
func (in PlaceOrderInput) Validate() error {
	if strings.TrimSpace(in.FirstName) == "" ||
		strings.TrimSpace(in.LastName) == "" ||
		strings.TrimSpace(in.Phone) == "" {
		return fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: invalid quantity for product %d", ErrValidation, it.ID)
		}
	}
	return nil
}

// Total is the order value as captured on the line items.
func (in PlaceOrderInput) Total() float64 {
	var sum float64
	for _, it := range in.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
