package order

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCheckout   = errors.New("invalid checkout request")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := validTransitions[st]
	return st, ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Address is where an order ships to.
type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Line1      string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"zip"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a placed storefront order. Amounts are in cents.
type Order struct {
	ID              uuid.UUID    `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          *uuid.UUID   `json:"user_id,omitempty"` // nil for guest checkout
	Status          OrderStatus  `json:"status"`
	Subtotal        money.Cents  `json:"subtotal"`
	Shipping        money.Cents  `json:"shipping"`
	Tax             money.Cents  `json:"tax"`
	Total           money.Cents  `json:"total"`
	Email           string       `json:"email"`
	ShippingAddress Address      `json:"shipping_address"`
	Notes           string       `json:"notes,omitempty"`
	Items           []*OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem snapshots a product's name, image and effective price at checkout.
type OrderItem struct {
	ID           uuid.UUID   `json:"id"`
	OrderID      uuid.UUID   `json:"order_id"`
	ProductID    *uuid.UUID  `json:"product_id,omitempty"` // nil once the product is deleted
	ProductName  string      `json:"product_name"`
	ProductImage string      `json:"product_image,omitempty"`
	Quantity     int         `json:"quantity"`
	Price        money.Cents `json:"price"`
	// Position is the line's index in the cart at checkout.
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckoutRequest is the payload for placing an order from the current cart.
type CheckoutRequest struct {
	Email           string  `json:"email"`
	ShippingAddress Address `json:"shipping_address"`
	Notes           string  `json:"notes,omitempty"`
}

// Validate trims the request in place and checks the required fields.
func (r *CheckoutRequest) Validate() error {
	a := &r.ShippingAddress
	for _, f := range []*string{&r.Email, &r.Notes, &a.FirstName, &a.LastName, &a.Line1, &a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone} {
		*f = strings.TrimSpace(*f)
	}

	required := []struct{ name, value string }{
		{"email", r.Email},
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address", a.Line1},
		{"city", a.City},
		{"zip", a.PostalCode},
		{"country", a.Country},
	}
	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCheckout, strings.Join(missing, ", "))
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return fmt.Errorf("%w: invalid email", ErrInvalidCheckout)
	}
	return nil
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListFilter narrows the admin order list. Empty fields match everything.
type ListFilter struct {
	Status OrderStatus
	Search string // case-insensitive substring of the order id or number
}

// Matches reports whether o passes the filter.
func (f ListFilter) Matches(o *Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(o.ID.String(), q) || strings.Contains(strings.ToLower(o.OrderNumber), q)
}
