package admin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// Sources are the counters the dashboard reads from the other modules.
type Sources struct {
	Products func(ctx context.Context) (int, error)
	Revenue  func(ctx context.Context) (money.Cents, error)
	Pending  func(ctx context.Context) (int, error)
	Unread   func(ctx context.Context) (int, error)
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalProducts  int         `json:"total_products"`
	TotalRevenue   money.Cents `json:"total_revenue"`
	PendingOrders  int         `json:"pending_orders"`
	UnreadMessages int         `json:"unread_messages"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct{ src Sources }

func NewService(src Sources) Service { return &service{src: src} }

// Overview loads every counter in parallel. The first failure cancels the
// context handed to the remaining lookups.
func (s *service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.src.Products(gctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		out.TotalProducts = n
		return nil
	})
	g.Go(func() error {
		rev, err := s.src.Revenue(gctx)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		out.TotalRevenue = rev
		return nil
	})
	g.Go(func() error {
		n, err := s.src.Pending(gctx)
		if err != nil {
			return fmt.Errorf("count pending orders: %w", err)
		}
		out.PendingOrders = n
		return nil
	})
	g.Go(func() error {
		n, err := s.src.Unread(gctx)
		if err != nil {
			return fmt.Errorf("count unread messages: %w", err)
		}
		out.UnreadMessages = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
