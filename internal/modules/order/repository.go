package order

import (
	"context"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// StatusChange is a guarded status update.
type StatusChange struct {
	From OrderStatus
	To   OrderStatus
	// Restock returns the order's item quantities to product stock in the
	// same transaction as the status write.
	Restock bool
}

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists a new order and its items atomically, decrementing
	// product stock in the same transaction.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its items by UUID.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable order number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrders returns orders matching filter, newest first, without items.
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)

	// ListOrdersByUser returns all orders placed by a user, newest first.
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)

	// UpdateStatus applies change only while the order is still in change.From.
	// It returns ErrNotFound when the order is gone and ErrInvalidTransition
	// when another writer moved it first.
	UpdateStatus(ctx context.Context, id string, change StatusChange) error

	// Revenue sums the totals of all orders that were not cancelled.
	Revenue(ctx context.Context) (money.Cents, error)

	CountByStatus(ctx context.Context, status OrderStatus) (int, error)
}
