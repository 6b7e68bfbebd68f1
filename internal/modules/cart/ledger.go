package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/money"
)

// Entry is one product in the cart with a positive quantity.
type Entry struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineTotal is the effective unit price times the quantity.
func (e Entry) LineTotal() money.Cents { return e.Product.EffectivePrice().Mul(e.Quantity) }

// ChangeKind tells subscribers what a mutation touched.
type ChangeKind int

const (
	// ChangeItems means entries or quantities changed and the cart must be persisted.
	ChangeItems ChangeKind = iota
	// ChangeVisibility means only the open/closed state changed.
	ChangeVisibility
)

// Change is delivered to subscribers after every state-changing mutation.
type Change struct {
	Kind    ChangeKind
	Entries []Entry
	Open    bool
}

// Lines returns the persistable form of the changed state.
func (c Change) Lines() []Line { return linesOf(c.Entries) }

// Ledger holds the ordered entries of one cart. At most one entry exists per
// product id; entries keep insertion order. Quantities are never <= 0.
//
// A Ledger never fails: unknown ids and non-positive quantities are handled as
// no-ops or removals.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	open    bool

	subs    map[int]func(Change)
	nextSub int
}

func NewLedger() *Ledger { return &Ledger{subs: map[int]func(Change){}} }

// Subscribe registers fn to run after each change. The returned func unsubscribes.
// fn runs on the mutating goroutine after the ledger lock is released.
func (l *Ledger) Subscribe(fn func(Change)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// AddItem merges qty into the entry for p, or appends a new entry. qty <= 0 is ignored.
func (l *Ledger) AddItem(p catalog.Product, qty int) {
	if qty <= 0 {
		return
	}
	l.mutate(ChangeItems, func() bool {
		if i := l.index(p.ID); i >= 0 {
			l.entries[i].Quantity += qty
			l.entries[i].Product = p
			return true
		}
		l.entries = append(l.entries, Entry{Product: p, Quantity: qty})
		return true
	})
}

// UpdateQuantity sets the quantity for id. qty <= 0 removes the entry; unknown ids are ignored.
func (l *Ledger) UpdateQuantity(id uuid.UUID, qty int) {
	l.mutate(ChangeItems, func() bool {
		i := l.index(id)
		if i < 0 {
			return false
		}
		if qty <= 0 {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
		if l.entries[i].Quantity == qty {
			return false
		}
		l.entries[i].Quantity = qty
		return true
	})
}

// RemoveItem drops the entry for id if present.
func (l *Ledger) RemoveItem(id uuid.UUID) { l.UpdateQuantity(id, 0) }

// Clear empties the cart.
func (l *Ledger) Clear() {
	l.mutate(ChangeItems, func() bool {
		if len(l.entries) == 0 {
			return false
		}
		l.entries = nil
		return true
	})
}

// OpenCart, CloseCart and ToggleCart drive the cart drawer visibility.
func (l *Ledger) OpenCart()   { l.setOpen(func(bool) bool { return true }) }
func (l *Ledger) CloseCart()  { l.setOpen(func(bool) bool { return false }) }
func (l *Ledger) ToggleCart() { l.setOpen(func(open bool) bool { return !open }) }

func (l *Ledger) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

func (l *Ledger) setOpen(next func(bool) bool) {
	l.mutate(ChangeVisibility, func() bool {
		v := next(l.open)
		if v == l.open {
			return false
		}
		l.open = v
		return true
	})
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyEntries()
}

// Quantity returns the quantity held for id, or 0.
func (l *Ledger) Quantity(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		return l.entries[i].Quantity
	}
	return 0
}

// Lines returns the persistable (product id, quantity) pairs.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return linesOf(l.entries)
}

// Subtotal sums effective price times quantity in integer cents.
func (l *Ledger) Subtotal() money.Cents {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum money.Cents
	for _, e := range l.entries {
		sum += e.LineTotal()
	}
	return sum
}

// TotalItems sums the quantities.
func (l *Ledger) TotalItems() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		n += e.Quantity
	}
	return n
}

// ShippingCost applies policy to the current subtotal.
func (l *Ledger) ShippingCost(policy ShippingPolicy) money.Cents {
	return policy.Cost(l.Subtotal())
}

// OrderTotal is the subtotal plus shipping.
func (l *Ledger) OrderTotal(policy ShippingPolicy) money.Cents {
	sub := l.Subtotal()
	return sub + policy.Cost(sub)
}

// Rehydrate replaces the entries with lines joined against products. Lines whose
// product is missing or whose quantity is not positive are dropped, and
// duplicate ids are merged into the first occurrence. Subscribers are not notified.
func (l *Ledger) Rehydrate(lines []Line, products map[uuid.UUID]catalog.Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	for _, ln := range lines {
		p, ok := products[ln.ProductID]
		if !ok || ln.Quantity <= 0 {
			continue
		}
		if i := l.index(ln.ProductID); i >= 0 {
			l.entries[i].Quantity += ln.Quantity
			continue
		}
		l.entries = append(l.entries, Entry{Product: p, Quantity: ln.Quantity})
	}
}

func (l *Ledger) mutate(kind ChangeKind, fn func() bool) {
	l.mu.Lock()
	if !fn() {
		l.mu.Unlock()
		return
	}
	change := Change{Kind: kind, Entries: l.copyEntries(), Open: l.open}
	subs := make([]func(Change), 0, len(l.subs))
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	l.mu.Unlock()

	for _, s := range subs {
		s(change)
	}
}

func (l *Ledger) index(id uuid.UUID) int {
	for i := range l.entries {
		if l.entries[i].Product.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) copyEntries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func linesOf(entries []Entry) []Line {
	out := make([]Line, len(entries))
	for i, e := range entries {
		out[i] = Line{ProductID: e.Product.ID, Quantity: e.Quantity}
	}
	return out
}
