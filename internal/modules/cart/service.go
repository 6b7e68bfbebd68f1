package cart

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
)

// Catalog is the subset of the catalog service the cart reads from.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error)
}

// PolicySource resolves the shipping policy in force for a request.
type PolicySource func(ctx context.Context) ShippingPolicy

// StaticPolicy always returns p.
func StaticPolicy(p ShippingPolicy) PolicySource {
	return func(context.Context) ShippingPolicy { return p }
}

type Service interface {
	GetCart(ctx context.Context, cartID string) (*View, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, cartID, productID string) (*View, error)
	ClearCart(ctx context.Context, cartID string) (*View, error)
	SetOpen(ctx context.Context, cartID string, open bool) (*View, error)
	ToggleOpen(ctx context.Context, cartID string) (*View, error)
}

const (
	lockStripes = 64

	// openTTL is how long a drawer stays open without being touched.
	openTTL = time.Hour
	// openSweepEvery bounds how often expired drawer flags are swept.
	openSweepEvery = time.Minute
)

type service struct {
	storage Storage
	catalog Catalog
	policy  PolicySource

	// Mutations of one cart are serialized within the process.
	locks [lockStripes]sync.Mutex

	// Drawer visibility is transient and never persisted. Flags expire after
	// openTTL so abandoned carts do not accumulate.
	openMu    sync.Mutex
	open      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewService(storage Storage, catalog Catalog, policy PolicySource) Service {
	if policy == nil {
		policy = StaticPolicy(DefaultShippingPolicy())
	}
	return &service{
		storage: storage,
		catalog: catalog,
		policy:  policy,
		open:    map[string]time.Time{},
		now:     time.Now,
	}
}

func (s *service) GetCart(ctx context.Context, cartID string) (*View, error) {
	l, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cartID, l), nil
}

// AddItem adds quantity units of a product, clamped so the cart never holds
// more than the product's stock.
func (s *service) AddItem(ctx context.Context, cartID, productID string, quantity int) (*View, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock() {
		return nil, ErrOutOfStock
	}
	return s.mutate(ctx, cartID, func(l *Ledger) {
		room := p.Stock - l.Quantity(p.ID)
		if quantity > room {
			quantity = room
		}
		l.AddItem(*p, quantity)
	})
}

// UpdateQuantity sets a line's quantity. Unknown products are ignored and a
// quantity of zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) (*View, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return s.GetCart(ctx, cartID)
	}
	return s.mutate(ctx, cartID, func(l *Ledger) {
		for _, e := range l.Entries() {
			if e.Product.ID == id && quantity > e.Product.Stock {
				quantity = e.Product.Stock
			}
		}
		l.UpdateQuantity(id, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, cartID, productID string) (*View, error) {
	return s.UpdateQuantity(ctx, cartID, productID, 0)
}

func (s *service) ClearCart(ctx context.Context, cartID string) (*View, error) {
	return s.mutate(ctx, cartID, func(l *Ledger) { l.Clear() })
}

func (s *service) SetOpen(ctx context.Context, cartID string, open bool) (*View, error) {
	s.openMu.Lock()
	now := s.now()
	if now.Sub(s.lastSweep) >= openSweepEvery {
		for id, touched := range s.open {
			if now.Sub(touched) >= openTTL {
				delete(s.open, id)
			}
		}
		s.lastSweep = now
	}
	if open {
		s.open[cartID] = now
	} else {
		delete(s.open, cartID)
	}
	s.openMu.Unlock()
	return s.GetCart(ctx, cartID)
}

func (s *service) ToggleOpen(ctx context.Context, cartID string) (*View, error) {
	return s.SetOpen(ctx, cartID, !s.isOpen(cartID))
}

// isOpen reports the drawer flag and refreshes it while it is live.
func (s *service) isOpen(cartID string) bool {
	s.openMu.Lock()
	defer s.openMu.Unlock()
	touched, ok := s.open[cartID]
	if !ok {
		return false
	}
	now := s.now()
	if now.Sub(touched) >= openTTL {
		delete(s.open, cartID)
		return false
	}
	s.open[cartID] = now
	return true
}

func (s *service) lockFor(cartID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(cartID))
	return &s.locks[h.Sum32()%lockStripes]
}

// load rehydrates the ledger for cartID from storage against the live catalog,
// clamping each line to the product's current stock.
func (s *service) load(ctx context.Context, cartID string) (*Ledger, error) {
	payload, err := s.storage.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	lines := DecodeLines(payload)

	l := NewLedger()
	if s.isOpen(cartID) {
		l.OpenCart()
	}
	if len(lines) == 0 {
		return l, nil
	}
	ids := make([]uuid.UUID, len(lines))
	for i, ln := range lines {
		ids[i] = ln.ProductID
	}
	products, err := s.catalog.LookupProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	l.Rehydrate(lines, products)
	for _, e := range l.Entries() {
		if e.Quantity > e.Product.Stock {
			l.UpdateQuantity(e.Product.ID, e.Product.Stock)
		}
	}
	return l, nil
}

// mutate loads the cart, applies fn and persists the lines if they changed.
func (s *service) mutate(ctx context.Context, cartID string, fn func(l *Ledger)) (*View, error) {
	mu := s.lockFor(cartID)
	mu.Lock()
	defer mu.Unlock()

	l, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	var saveErr error
	unsubscribe := l.Subscribe(func(c Change) {
		if c.Kind != ChangeItems {
			return
		}
		saveErr = s.storage.Save(ctx, cartID, EncodeLines(c.Lines()))
	})
	fn(l)
	unsubscribe()

	if saveErr != nil {
		return nil, saveErr
	}
	return s.view(ctx, cartID, l), nil
}

func (s *service) view(ctx context.Context, cartID string, l *Ledger) *View {
	return NewView(cartID, l.Entries(), l.IsOpen(), s.policy(ctx))
}
