package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"orderdesk/internal/domain"
)

// LineItem is one product row of the draft.
type LineItem struct {
	ItemID    domain.ID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Unit      *int
}

// Subtotal is quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Draft is the order being composed. It is not safe for concurrent use;
// the owning workflow session serializes access.
type Draft struct {
	customer     *domain.Client
	account      *domain.Account
	organization *domain.Organization
	warehouse    *domain.Warehouse
	priceType    *domain.PriceType
	items        []LineItem

	loyalty domain.LoyaltyAssociation
	// customerSeq increments on every customer selection change and tags
	// loyalty lookups so late answers for an older selection are dropped.
	customerSeq uint64
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// LoyaltyTag identifies the customer selection a loyalty lookup was issued for.
type LoyaltyTag struct {
	CustomerID domain.ID
	Seq        uint64
}

// SelectCustomer replaces the customer and invalidates the loyalty association.
// The returned tag must accompany the loyalty lookup result.
func (d *Draft) SelectCustomer(c domain.Client) LoyaltyTag {
	d.customer = &c
	d.customerSeq++
	d.loyalty = domain.LoyaltyAssociation{Status: domain.LoyaltyUnresolved}
	return LoyaltyTag{CustomerID: c.ID, Seq: d.customerSeq}
}

// ClearCustomer deselects the customer and drops any loyalty association.
func (d *Draft) ClearCustomer() {
	d.customer = nil
	d.customerSeq++
	d.loyalty = domain.LoyaltyAssociation{Status: domain.LoyaltyUnresolved}
}

// AttachLoyalty stores a resolved association if tag still matches the current
// customer selection. It reports whether the association was kept.
func (d *Draft) AttachLoyalty(tag LoyaltyTag, assoc domain.LoyaltyAssociation) bool {
	if d.customer == nil || d.customer.ID != tag.CustomerID || d.customerSeq != tag.Seq {
		return false
	}
	d.loyalty = assoc
	return true
}

func (d *Draft) SelectAccount(a domain.Account)           { d.account = &a }
func (d *Draft) SelectOrganization(o domain.Organization) { d.organization = &o }
func (d *Draft) SelectWarehouse(w domain.Warehouse)       { d.warehouse = &w }
func (d *Draft) SelectPriceType(p domain.PriceType)       { d.priceType = &p }

func (d *Draft) ClearAccount()      { d.account = nil }
func (d *Draft) ClearOrganization() { d.organization = nil }
func (d *Draft) ClearWarehouse()    { d.warehouse = nil }
func (d *Draft) ClearPriceType()    { d.priceType = nil }

func (d *Draft) Customer() (domain.Client, bool)           { return deref(d.customer) }
func (d *Draft) Account() (domain.Account, bool)           { return deref(d.account) }
func (d *Draft) Organization() (domain.Organization, bool) { return deref(d.organization) }
func (d *Draft) Warehouse() (domain.Warehouse, bool)       { return deref(d.warehouse) }
func (d *Draft) PriceType() (domain.PriceType, bool)       { return deref(d.priceType) }
func (d *Draft) Loyalty() domain.LoyaltyAssociation        { return d.loyalty }

// AddLineItem appends p with quantity 1 at its first listed price.
func (d *Draft) AddLineItem(p domain.Product) error {
	if d.indexOf(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateItem, p.ID)
	}
	d.items = append(d.items, LineItem{
		ItemID:    p.ID,
		Name:      p.Name,
		Quantity:  1,
		UnitPrice: p.FirstPrice(),
		Unit:      p.Unit,
	})
	return nil
}

// SetQuantity changes the quantity of an existing line item.
func (d *Draft) SetQuantity(id domain.ID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, qty)
	}
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	d.items[i].Quantity = qty
	return nil
}

// RemoveLineItem drops the item if present.
func (d *Draft) RemoveLineItem(id domain.ID) {
	i := d.indexOf(id)
	if i < 0 {
		return
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
}

// HasItem reports whether the catalog item is already in the draft.
func (d *Draft) HasItem(id domain.ID) bool {
	return d.indexOf(id) >= 0
}

// Items returns a copy of the line items in insertion order.
func (d *Draft) Items() []LineItem {
	out := make([]LineItem, len(d.items))
	copy(out, d.items)
	return out
}

// Total sums every subtotal. It is recomputed on each call.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range d.items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Reset clears every selection, item and the loyalty association.
func (d *Draft) Reset() {
	d.customer = nil
	d.account = nil
	d.organization = nil
	d.warehouse = nil
	d.priceType = nil
	d.items = nil
	d.customerSeq++
	d.loyalty = domain.LoyaltyAssociation{Status: domain.LoyaltyUnresolved}
}

// IsEmpty reports whether nothing has been selected or added.
func (d *Draft) IsEmpty() bool {
	return d.customer == nil && d.account == nil && d.organization == nil &&
		d.warehouse == nil && d.priceType == nil && len(d.items) == 0
}

func (d *Draft) indexOf(id domain.ID) int {
	for i, li := range d.items {
		if li.ItemID == id {
			return i
		}
	}
	return -1
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
