package order_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
)

func product(id domain.ID, price string) domain.Product {
	return domain.Product{
		ID:     id,
		Name:   "Product " + id.String(),
		Prices: []domain.ProductPrice{{Price: decimal.RequireFromString(price), PriceType: "retail"}},
	}
}

func expectedTotal(items []order.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return sum
}

func TestDraft_AddLineItemUsesFirstPrice(t *testing.T) {
	d := order.NewDraft()
	p := domain.Product{
		ID:   7,
		Name: "Tea",
		Prices: []domain.ProductPrice{
			{Price: decimal.RequireFromString("12.50"), PriceType: "retail"},
			{Price: decimal.RequireFromString("9.99"), PriceType: "wholesale"},
		},
	}
	require.NoError(t, d.AddLineItem(p))

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestDraft_AddLineItemWithoutPrices(t *testing.T) {
	d := order.NewDraft()
	require.NoError(t, d.AddLineItem(domain.Product{ID: 1, Name: "Free"}))
	assert.True(t, d.Total().IsZero())
}

func TestDraft_AddLineItemIgnoresPriceTypeSelection(t *testing.T) {
	d := order.NewDraft()
	d.SelectPriceType(domain.PriceType{ID: 2, Name: "wholesale"})
	p := domain.Product{
		ID: 1,
		Prices: []domain.ProductPrice{
			{Price: decimal.NewFromInt(10), PriceType: "retail"},
			{Price: decimal.NewFromInt(8), PriceType: "wholesale"},
		},
	}
	require.NoError(t, d.AddLineItem(p))
	assert.True(t, d.Items()[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestDraft_DuplicateAddIsRejected(t *testing.T) {
	d := order.NewDraft()
	require.NoError(t, d.AddLineItem(product(100, "150.00")))
	require.NoError(t, d.SetQuantity(100, 3))

	err := d.AddLineItem(product(100, "150.00"))
	require.ErrorIs(t, err, domain.ErrDuplicateItem)

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestDraft_SetQuantityRejectsBelowOne(t *testing.T) {
	d := order.NewDraft()
	require.NoError(t, d.AddLineItem(product(5, "2.00")))
	require.NoError(t, d.SetQuantity(5, 4))

	for _, qty := range []int{0, -1} {
		err := d.SetQuantity(5, qty)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.Equal(t, 4, d.Items()[0].Quantity)
	}
}

func TestDraft_SetQuantityUnknownItem(t *testing.T) {
	d := order.NewDraft()
	err := d.SetQuantity(9, 2)
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDraft_RemoveLineItem(t *testing.T) {
	d := order.NewDraft()
	require.NoError(t, d.AddLineItem(product(1, "1.00")))
	require.NoError(t, d.AddLineItem(product(2, "2.00")))
	require.NoError(t, d.AddLineItem(product(3, "3.00")))

	d.RemoveLineItem(2)
	d.RemoveLineItem(42)

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, domain.ID(1), items[0].ItemID)
	assert.Equal(t, domain.ID(3), items[1].ItemID)
}

func TestDraft_TotalMatchesSumAfterEveryMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prices := []string{"0.00", "0.10", "1.99", "150.00", "12.345", "999.99"}
	d := order.NewDraft()

	for step := 0; step < 500; step++ {
		id := domain.ID(rng.Intn(8) + 1)
		switch rng.Intn(3) {
		case 0:
			_ = d.AddLineItem(product(id, prices[rng.Intn(len(prices))]))
		case 1:
			_ = d.SetQuantity(id, rng.Intn(6)-1)
		case 2:
			d.RemoveLineItem(id)
		}
		require.True(t, d.Total().Equal(expectedTotal(d.Items())), "step %d", step)
	}
}

func TestDraft_SelectionsReplace(t *testing.T) {
	d := order.NewDraft()
	d.SelectWarehouse(domain.Warehouse{ID: 1, Name: "Main"})
	d.SelectWarehouse(domain.Warehouse{ID: 2, Name: "Backup"})

	w, ok := d.Warehouse()
	require.True(t, ok)
	assert.Equal(t, domain.ID(2), w.ID)

	d.ClearWarehouse()
	_, ok = d.Warehouse()
	assert.False(t, ok)
}

func TestDraft_LoyaltyTagDiscardsStaleResult(t *testing.T) {
	d := order.NewDraft()
	tagA := d.SelectCustomer(domain.Client{ID: 1, Name: "A"})
	tagB := d.SelectCustomer(domain.Client{ID: 2, Name: "B"})

	cardA := domain.LoyaltyCard{ID: 11, ContragentID: 1}
	assert.False(t, d.AttachLoyalty(tagA, domain.LoyaltyFoundFor(cardA)))
	assert.Equal(t, domain.LoyaltyUnresolved, d.Loyalty().Status)

	cardB := domain.LoyaltyCard{ID: 22, ContragentID: 2}
	assert.True(t, d.AttachLoyalty(tagB, domain.LoyaltyFoundFor(cardB)))
	id, ok := d.Loyalty().CardID()
	require.True(t, ok)
	assert.Equal(t, domain.ID(22), id)
}

func TestDraft_LoyaltyReselectSameCustomerUsesNewTag(t *testing.T) {
	d := order.NewDraft()
	first := d.SelectCustomer(domain.Client{ID: 1})
	d.SelectCustomer(domain.Client{ID: 2})
	d.SelectCustomer(domain.Client{ID: 1})

	assert.False(t, d.AttachLoyalty(first, domain.LoyaltyFoundFor(domain.LoyaltyCard{ID: 3})))
}

func TestDraft_ClearCustomerInvalidatesLoyalty(t *testing.T) {
	d := order.NewDraft()
	tag := d.SelectCustomer(domain.Client{ID: 1})
	require.True(t, d.AttachLoyalty(tag, domain.LoyaltyFoundFor(domain.LoyaltyCard{ID: 3})))

	d.ClearCustomer()
	assert.Equal(t, domain.LoyaltyUnresolved, d.Loyalty().Status)
	assert.False(t, d.AttachLoyalty(tag, domain.LoyaltyFoundFor(domain.LoyaltyCard{ID: 3})))
}

func TestDraft_Reset(t *testing.T) {
	d := order.NewDraft()
	tag := d.SelectCustomer(domain.Client{ID: 1})
	d.SelectAccount(domain.Account{ID: 2})
	d.SelectOrganization(domain.Organization{ID: 3})
	d.SelectWarehouse(domain.Warehouse{ID: 4})
	d.SelectPriceType(domain.PriceType{ID: 5})
	require.NoError(t, d.AddLineItem(product(6, "1.00")))

	d.Reset()

	assert.True(t, d.IsEmpty())
	assert.True(t, d.Snapshot().Empty)
	assert.Equal(t, domain.LoyaltyUnresolved, d.Loyalty().Status)
	assert.False(t, d.AttachLoyalty(tag, domain.LoyaltyNotFoundBecause(domain.LoyaltyReasonNone)))
}

func TestDraft_SnapshotIsACopy(t *testing.T) {
	d := order.NewDraft()
	d.SelectAccount(domain.Account{ID: 2, Name: "Cash"})
	require.NoError(t, d.AddLineItem(product(6, "2.50")))
	require.NoError(t, d.SetQuantity(6, 2))

	snap := d.Snapshot()
	snap.Account.Name = "changed"

	a, _ := d.Account()
	assert.Equal(t, "Cash", a.Name)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "5", snap.Items[0].Subtotal.String())
	assert.Equal(t, "5", snap.Total.String())
}
