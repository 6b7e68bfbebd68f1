package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/events"
	"github.com/georgemunganga/storefront-backend/internal/modules/cart"
	"github.com/georgemunganga/storefront-backend/internal/modules/user"
	"github.com/georgemunganga/storefront-backend/internal/money"
)

type memoryRepo struct {
	mu      sync.Mutex
	orders  []*Order
	changes []StatusChange
	err     error

	// beforeUpdate runs ahead of the guarded write, standing in for a
	// concurrent writer.
	beforeUpdate func()
}

func (r *memoryRepo) CreateOrder(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for _, it := range o.Items {
		it.OrderID = o.ID
	}
	cp := *o
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *memoryRepo) find(match func(*Order) bool) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) GetOrderByID(_ context.Context, id string) (*Order, error) {
	return r.find(func(o *Order) bool { return o.ID.String() == id })
}

func (r *memoryRepo) GetOrderByNumber(_ context.Context, n string) (*Order, error) {
	return r.find(func(o *Order) bool { return o.OrderNumber == n })
}

func (r *memoryRepo) list(match func(*Order) bool) []*Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Order{}
	for _, o := range r.orders {
		if match(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memoryRepo) ListOrders(_ context.Context, f ListFilter) ([]*Order, error) {
	return r.list(f.Matches), nil
}

func (r *memoryRepo) ListOrdersByUser(_ context.Context, userID string) ([]*Order, error) {
	return r.list(func(o *Order) bool { return o.UserID != nil && o.UserID.String() == userID }), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, change StatusChange) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID.String() != id {
			continue
		}
		if o.Status != change.From {
			return fmt.Errorf("%w: order is %s, not %s", ErrInvalidTransition, o.Status, change.From)
		}
		o.Status = change.To
		r.changes = append(r.changes, change)
		return nil
	}
	return ErrNotFound
}

func (r *memoryRepo) setStatus(id uuid.UUID, st OrderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			o.Status = st
		}
	}
}

func (r *memoryRepo) Revenue(context.Context) (money.Cents, error) {
	var sum money.Cents
	for _, o := range r.list(func(o *Order) bool { return o.Status != StatusCancelled }) {
		sum += o.Total
	}
	return sum, nil
}

func (r *memoryRepo) CountByStatus(_ context.Context, st OrderStatus) (int, error) {
	return len(r.list(func(o *Order) bool { return o.Status == st })), nil
}

// fakeCarts serves fixed cart views and records clears.
type fakeCarts struct {
	mu      sync.Mutex
	views   map[string]*cart.View
	cleared []string
}

func (c *fakeCarts) GetCart(_ context.Context, id string) (*cart.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[id]; ok {
		return v, nil
	}
	return cart.NewView(id, nil, false, cart.DefaultShippingPolicy()), nil
}

func (c *fakeCarts) ClearCart(_ context.Context, id string) (*cart.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
	c.cleared = append(c.cleared, id)
	return cart.NewView(id, nil, false, cart.DefaultShippingPolicy()), nil
}

func sampleView(cartID string) *cart.View {
	a := uuid.NewSHA1(uuid.NameSpaceOID, []byte("a"))
	b := uuid.NewSHA1(uuid.NameSpaceOID, []byte("b"))
	v := &cart.View{CartID: cartID, Items: []cart.ViewItem{
		{ProductID: a, Name: "Product A", UnitPrice: 2000, Quantity: 2, LineTotal: 4000, Image: "a.jpg"},
		{ProductID: b, Name: "Product B", UnitPrice: 1000, Quantity: 1, LineTotal: 1000},
	}}
	v.Subtotal, v.TotalItems, v.Shipping, v.Total = 5000, 3, 0, 5000
	return v
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Email: "ada@example.com",
		ShippingAddress: Address{
			FirstName: "Ada", LastName: "Lovelace", Line1: "12 St James's Square",
			City: "London", PostalCode: "SW1Y 4JH", Country: "United Kingdom",
		},
	}
}

type fixture struct {
	repo     *memoryRepo
	carts    *fakeCarts
	recorder *events.Recorder
	svc      Service
}

func newFixture(delay time.Duration) *fixture {
	f := &fixture{
		repo:     &memoryRepo{},
		carts:    &fakeCarts{views: map[string]*cart.View{"c1": sampleView("c1")}},
		recorder: events.NewRecorder(),
	}
	f.svc = NewService(f.repo, f.carts, f.recorder, delay, zap.NewNop())
	return f
}

func TestCheckoutSnapshotsCartAndClearsIt(t *testing.T) {
	f := newFixture(0)
	uid := uuid.New()

	o, err := f.svc.Checkout(context.Background(), "c1", &uid, validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "50.00", o.Subtotal.String())
	assert.Equal(t, "0.00", o.Shipping.String())
	assert.Equal(t, "0.00", o.Tax.String())
	assert.Equal(t, "50.00", o.Total.String())
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{4}$`, o.OrderNumber)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Product A", o.Items[0].ProductName)
	assert.Equal(t, money.Cents(2000), o.Items[0].Price)
	assert.Equal(t, 2, o.Items[0].Quantity)

	assert.Equal(t, []string{"c1"}, f.carts.cleared)

	evs := f.recorder.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, EventOrderPlaced, evs[0].Key)
	assert.Contains(t, string(evs[0].Payload), o.ID.String())
	assert.Contains(t, string(evs[0].Payload), `"total":"50.00"`)

	mine, err := f.svc.ListUserOrders(context.Background(), uid)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCheckoutRejectsEmptyCartAndBadAddress(t *testing.T) {
	f := newFixture(0)

	_, err := f.svc.Checkout(context.Background(), "empty", nil, validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	req := validRequest()
	req.ShippingAddress.City = "  "
	req.Email = ""
	_, err = f.svc.Checkout(context.Background(), "c1", nil, req)
	assert.ErrorIs(t, err, ErrInvalidCheckout)
	assert.ErrorContains(t, err, "missing email, city")

	req = validRequest()
	req.Email = "Ada <ada@example.com>"
	_, err = f.svc.Checkout(context.Background(), "c1", nil, req)
	assert.ErrorIs(t, err, ErrInvalidCheckout)

	assert.Empty(t, f.carts.cleared)
	assert.Empty(t, f.recorder.Events())
}

func TestCheckoutDelayHonorsCancellation(t *testing.T) {
	f := newFixture(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.svc.Checkout(ctx, "c1", nil, validRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.carts.cleared)
}

func TestCheckoutKeepsCartWhenPersistFails(t *testing.T) {
	f := newFixture(0)
	f.repo.err = errors.New("insert failed")

	_, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	assert.ErrorContains(t, err, "insert failed")
	assert.Empty(t, f.carts.cleared)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestUpdateStatusAndCancel(t *testing.T) {
	f := newFixture(0)
	o, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	require.NoError(t, err)
	id := o.ID.String()

	_, err = f.svc.UpdateStatus(context.Background(), id, UpdateStatusRequest{Status: "shipped"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.UpdateStatus(context.Background(), id, UpdateStatusRequest{Status: "PROCESSING"})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)

	require.NoError(t, f.svc.CancelOrder(context.Background(), id))
	assert.ErrorIs(t, f.svc.CancelOrder(context.Background(), id), ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.NewString(), UpdateStatusRequest{Status: "processing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusRejectsConcurrentChange(t *testing.T) {
	f := newFixture(0)
	o, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), o.ID.String(), UpdateStatusRequest{Status: "processing"})
	require.NoError(t, err)

	// Another admin ships the order after this request read it as processing.
	f.repo.beforeUpdate = func() { f.repo.setStatus(o.ID, StatusShipped) }

	err = f.svc.CancelOrder(context.Background(), o.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.GetOrder(context.Background(), o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
}

func TestCancelReturnsItemsToStock(t *testing.T) {
	f := newFixture(0)
	o, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	require.NoError(t, err)
	id := o.ID.String()

	_, err = f.svc.UpdateStatus(context.Background(), id, UpdateStatusRequest{Status: "processing"})
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelOrder(context.Background(), id))

	assert.Equal(t, []StatusChange{
		{From: StatusPending, To: StatusProcessing},
		{From: StatusProcessing, To: StatusCancelled, Restock: true},
	}, f.repo.changes)
}

func TestCheckoutKeepsCartLineOrder(t *testing.T) {
	f := newFixture(0)
	o, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.Equal(t, 0, o.Items[0].Position)
	assert.Equal(t, "Product A", o.Items[0].ProductName)
	assert.Equal(t, 1, o.Items[1].Position)
	assert.Equal(t, "Product B", o.Items[1].ProductName)
}

func TestListFilterAndRevenue(t *testing.T) {
	f := newFixture(0)
	first, err := f.svc.Checkout(context.Background(), "c1", nil, validRequest())
	require.NoError(t, err)
	f.carts.views["c2"] = sampleView("c2")
	second, err := f.svc.Checkout(context.Background(), "c2", nil, validRequest())
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelOrder(context.Background(), second.ID.String()))

	pending, err := f.svc.ListOrders(context.Background(), ListFilter{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	byID, err := f.svc.ListOrders(context.Background(), ListFilter{Search: " " + strings.ToUpper(second.ID.String()[:8]) + " "})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, second.ID, byID[0].ID)

	revenue, err := f.svc.Revenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "50.00", revenue.String())

	n, err := f.svc.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetUserOrderHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(0)
	owner := uuid.New()
	o, err := f.svc.Checkout(context.Background(), "c1", &owner, validRequest())
	require.NoError(t, err)

	_, err = f.svc.GetUserOrder(context.Background(), uuid.New(), o.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetUserOrder(context.Background(), owner, o.ID.String())
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func passThrough(next http.Handler) http.Handler { return next }

func TestCheckoutEndpoint(t *testing.T) {
	f := newFixture(0)
	uid := uuid.New()
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.WithID(r.Context(), uid)))
		})
	}
	router := chi.NewRouter()
	NewHandler(f.svc, Guards{Optional: asUser, RequireUser: asUser, RequireAdmin: passThrough}, time.Hour, zap.NewNop()).RegisterRoutes(router)

	body := `{"email":"ada@example.com","shipping_address":{"first_name":"Ada","last_name":"Lovelace","address":"1 Main St","city":"Lusaka","zip":"10101","country":"Zambia"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", strings.NewReader(body))
	req.Header.Set(cart.HeaderName, uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "fresh cart is empty")

	f.carts.views["4b1f8f6e-1c1a-4d55-9a43-2a5f3c1f0b11"] = sampleView("4b1f8f6e-1c1a-4d55-9a43-2a5f3c1f0b11")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", strings.NewReader(body))
	req.Header.Set(cart.HeaderName, "4b1f8f6e-1c1a-4d55-9a43-2a5f3c1f0b11")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"`+uid.String()+`"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/mine", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
