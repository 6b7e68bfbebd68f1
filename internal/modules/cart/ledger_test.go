package cart

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/money"
)

func testProduct(name string, price money.Cents, discount *money.Cents) catalog.Product {
	return catalog.Product{
		ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name:          name,
		Slug:          catalog.Slugify(name),
		Price:         price,
		DiscountPrice: discount,
		Stock:         20,
		Category:      "supplements",
	}
}

func discount(c money.Cents) *money.Cents { return &c }

var (
	productA = testProduct("Product A", 2000, nil)
	productB = testProduct("Product B", 1500, discount(1000))
)

func TestLedgerScenarioMeetsFreeShipping(t *testing.T) {
	l := NewLedger()
	l.AddItem(productA, 2)
	l.AddItem(productB, 1)
	policy := DefaultShippingPolicy()

	assert.Equal(t, "50.00", l.Subtotal().String())
	assert.Equal(t, money.Cents(0), l.ShippingCost(policy))
	assert.Equal(t, "50.00", l.OrderTotal(policy).String())
	assert.Equal(t, 3, l.TotalItems())
}

func TestLedgerScenarioBelowThreshold(t *testing.T) {
	l := NewLedger()
	l.AddItem(productA, 2)
	policy := DefaultShippingPolicy()

	assert.Equal(t, "40.00", l.Subtotal().String())
	assert.Equal(t, "5.99", l.ShippingCost(policy).String())
	assert.Equal(t, "45.99", l.OrderTotal(policy).String())
}

func TestAddItemMergesQuantities(t *testing.T) {
	l := NewLedger()
	l.AddItem(productA, 2)
	l.AddItem(productB, 1)
	l.AddItem(productA, 3)

	want := []Line{{ProductID: productA.ID, Quantity: 5}, {ProductID: productB.ID, Quantity: 1}}
	if diff := cmp.Diff(want, l.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
}

func TestAddItemIgnoresNonPositiveQuantity(t *testing.T) {
	l := NewLedger()
	l.AddItem(productA, 0)
	l.AddItem(productA, -2)
	assert.Empty(t, l.Entries())
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	updated, removed := NewLedger(), NewLedger()
	for _, l := range []*Ledger{updated, removed} {
		l.AddItem(productA, 2)
		l.AddItem(productB, 1)
	}
	updated.UpdateQuantity(productA.ID, 0)
	removed.RemoveItem(productA.ID)

	assert.Equal(t, removed.Lines(), updated.Lines())
	assert.Equal(t, []Line{{ProductID: productB.ID, Quantity: 1}}, updated.Lines())
}

func TestUpdateQuantityUnknownIDIsNoop(t *testing.T) {
	l := NewLedger()
	l.AddItem(productA, 2)
	before := l.Lines()

	notified := false
	cancel := l.Subscribe(func(Change) { notified = true })
	defer cancel()

	l.UpdateQuantity(uuid.New(), 3)
	l.RemoveItem(uuid.New())

	assert.Equal(t, before, l.Lines())
	assert.False(t, notified)
}

func TestSubtotalIgnoresEntryOrder(t *testing.T) {
	c := testProduct("Product C", 333, discount(111))

	forward := NewLedger()
	forward.AddItem(productA, 1)
	forward.AddItem(productB, 4)
	forward.AddItem(c, 7)

	backward := NewLedger()
	backward.AddItem(c, 7)
	backward.AddItem(productB, 4)
	backward.AddItem(productA, 1)

	assert.Equal(t, forward.Subtotal(), backward.Subtotal())
	assert.Equal(t, money.Cents(2000+4*1000+7*111), forward.Subtotal())
}

func TestShippingPolicyThreshold(t *testing.T) {
	policy := DefaultShippingPolicy()
	tests := []struct {
		subtotal money.Cents
		shipping money.Cents
		remain   money.Cents
	}{
		{0, 599, 5000},
		{4999, 599, 1},
		{5000, 0, 0},
		{12000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal.String(), func(t *testing.T) {
			assert.Equal(t, tt.shipping, policy.Cost(tt.subtotal))
			assert.Equal(t, tt.remain, policy.Remaining(tt.subtotal))
		})
	}
}

func TestClearAndVisibility(t *testing.T) {
	l := NewLedger()
	var kinds []ChangeKind
	cancel := l.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	l.AddItem(productA, 1)
	l.OpenCart()
	l.OpenCart()
	l.ToggleCart()
	l.Clear()
	l.Clear()
	cancel()
	l.AddItem(productB, 1)

	assert.False(t, l.IsOpen())
	assert.Equal(t, []ChangeKind{ChangeItems, ChangeVisibility, ChangeVisibility, ChangeItems}, kinds)
	assert.Len(t, l.Entries(), 1)
}

func TestRehydrateDropsUnknownAndMergesDuplicates(t *testing.T) {
	l := NewLedger()
	l.Rehydrate([]Line{
		{ProductID: productA.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 4},
		{ProductID: productB.ID, Quantity: 0},
		{ProductID: productA.ID, Quantity: 2},
	}, map[uuid.UUID]catalog.Product{productA.ID: productA, productB.ID: productB})

	assert.Equal(t, []Line{{ProductID: productA.ID, Quantity: 3}}, l.Lines())
}

func TestLedgerConcurrentAdds(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AddItem(productA, 1)
		}()
	}
	wg.Wait()

	require.Len(t, l.Entries(), 1)
	assert.Equal(t, 50, l.TotalItems())
}
