package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/events"
	"github.com/georgemunganga/storefront-backend/internal/modules/cart"
	"github.com/georgemunganga/storefront-backend/internal/money"
)

// EventOrderPlaced is the event key published after a successful checkout.
const EventOrderPlaced = "order.placed"

// Carts is the subset of the cart service checkout needs.
type Carts interface {
	GetCart(ctx context.Context, cartID string) (*cart.View, error)
	ClearCart(ctx context.Context, cartID string) (*cart.View, error)
}

// Service defines the order management business logic.
type Service interface {
	// Checkout turns the cart into a pending order and empties the cart.
	Checkout(ctx context.Context, cartID string, userID *uuid.UUID, req CheckoutRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// GetUserOrder returns an order only when it belongs to userID.
	GetUserOrder(ctx context.Context, userID uuid.UUID, id string) (*Order, error)

	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// UpdateStatus advances an order along the status state machine.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)

	// CancelOrder cancels a pending or processing order and returns its items to stock.
	CancelOrder(ctx context.Context, id string) error

	Revenue(ctx context.Context) (money.Cents, error)
	CountPending(ctx context.Context) (int, error)
}

// PlacedEvent is the payload of the order.placed event.
type PlacedEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	Email       string      `json:"email"`
	Items       int         `json:"items"`
	Total       money.Cents `json:"total"`
	PlacedAt    time.Time   `json:"placed_at"`
}

type service struct {
	repo      Repository
	carts     Carts
	publisher events.Publisher
	delay     time.Duration
	logger    *zap.Logger
}

// NewService creates a new order service. delay is the simulated payment
// processing time spent before an order is persisted.
func NewService(repo Repository, carts Carts, publisher events.Publisher, delay time.Duration, logger *zap.Logger) Service {
	return &service{repo: repo, carts: carts, publisher: publisher, delay: delay, logger: logger}
}

func (s *service) Checkout(ctx context.Context, cartID string, userID *uuid.UUID, req CheckoutRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.process(ctx); err != nil {
		return nil, err
	}

	o := &Order{
		ID:              uuid.New(),
		OrderNumber:     generateOrderNumber(),
		UserID:          userID,
		Status:          StatusPending,
		Subtotal:        c.Subtotal,
		Shipping:        c.Shipping,
		Total:           c.Total,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	for i, it := range c.Items {
		pid := it.ProductID
		o.Items = append(o.Items, &OrderItem{
			Position:     i,
			ID:           uuid.New(),
			ProductID:    &pid,
			ProductName:  it.Name,
			ProductImage: it.Image,
			Quantity:     it.Quantity,
			Price:        it.UnitPrice,
		})
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if _, err := s.carts.ClearCart(ctx, cartID); err != nil {
		s.logger.Warn("order placed but cart not cleared",
			zap.String("order_id", o.ID.String()), zap.String("cart_id", cartID), zap.Error(err))
	}

	event := PlacedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Email:       o.Email,
		Items:       c.TotalItems,
		Total:       o.Total,
		PlacedAt:    o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, EventOrderPlaced, event); err != nil {
		s.logger.Error("failed to publish order event", zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.String()))
	return o, nil
}

// process waits out the simulated payment step, giving up when ctx ends.
func (s *service) process(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.repo.GetOrderByNumber(ctx, orderNumber)
}

func (s *service) GetUserOrder(ctx context.Context, userID uuid.UUID, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListOrders(ctx, filter)
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID.String())
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStatus, ok := ParseStatus(req.Status)
	if !ok || !CanTransition(o.Status, newStatus) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, o.Status, newStatus)
	}

	change := StatusChange{From: o.Status, To: newStatus, Restock: newStatus == StatusCancelled}
	if err := s.repo.UpdateStatus(ctx, id, change); err != nil {
		return nil, err
	}
	o.Status = newStatus
	o.UpdatedAt = time.Now()
	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, id string) error {
	_, err := s.UpdateStatus(ctx, id, UpdateStatusRequest{Status: string(StatusCancelled)})
	return err
}

func (s *service) Revenue(ctx context.Context) (money.Cents, error) {
	return s.repo.Revenue(ctx)
}

func (s *service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusPending)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
