package cart

import (
	"errors"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// ErrOutOfStock is returned when a product with no stock is added.
var ErrOutOfStock = errors.New("product is out of stock")

// Line is the persisted form of one cart entry. Product details are re-joined
// against the live catalog on load.
type Line struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// ShippingPolicy decides the shipping charge from the subtotal.
type ShippingPolicy struct {
	FreeThreshold money.Cents
	FlatRate      money.Cents
}

// DefaultShippingPolicy is free shipping from 50.00, otherwise 5.99.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{FreeThreshold: 5000, FlatRate: 599}
}

// Cost is zero when subtotal reaches the threshold, otherwise the flat rate.
func (p ShippingPolicy) Cost(subtotal money.Cents) money.Cents {
	if subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FlatRate
}

// Remaining is how much more must be spent to reach free shipping.
func (p ShippingPolicy) Remaining(subtotal money.Cents) money.Cents {
	if subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FreeThreshold - subtotal
}

// View is the cart as rendered to clients.
type View struct {
	CartID                string      `json:"cart_id"`
	Items                 []ViewItem  `json:"items"`
	Subtotal              money.Cents `json:"subtotal"`
	TotalItems            int         `json:"total_items"`
	Shipping              money.Cents `json:"shipping"`
	Total                 money.Cents `json:"total"`
	FreeShippingRemaining money.Cents `json:"free_shipping_remaining"`
	IsOpen                bool        `json:"is_open"`
}

// ViewItem is one rendered cart entry.
type ViewItem struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	Image     string      `json:"image,omitempty"`
	UnitPrice money.Cents `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	LineTotal money.Cents `json:"line_total"`
	Stock     int         `json:"stock"`
}

// NewView renders entries under policy.
func NewView(cartID string, entries []Entry, open bool, policy ShippingPolicy) *View {
	v := &View{CartID: cartID, Items: make([]ViewItem, 0, len(entries)), IsOpen: open}
	for _, e := range entries {
		item := ViewItem{
			ProductID: e.Product.ID,
			Name:      e.Product.Name,
			Slug:      e.Product.Slug,
			UnitPrice: e.Product.EffectivePrice(),
			Quantity:  e.Quantity,
			LineTotal: e.LineTotal(),
			Stock:     e.Product.Stock,
		}
		if len(e.Product.Images) > 0 {
			item.Image = e.Product.Images[0]
		}
		v.Items = append(v.Items, item)
		v.Subtotal += item.LineTotal
		v.TotalItems += e.Quantity
	}
	v.Shipping = policy.Cost(v.Subtotal)
	v.Total = v.Subtotal + v.Shipping
	v.FreeShippingRemaining = policy.Remaining(v.Subtotal)
	return v
}
