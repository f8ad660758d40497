package order

import (
	"github.com/shopspring/decimal"

	"orderdesk/internal/domain"
)

// Snapshot is a read-only copy of the draft handed to UI collaborators.
type Snapshot struct {
	Customer     *domain.Client            `json:"customer"`
	Account      *domain.Account           `json:"account"`
	Organization *domain.Organization      `json:"organization"`
	Warehouse    *domain.Warehouse         `json:"warehouse"`
	PriceType    *domain.PriceType         `json:"priceType"`
	Loyalty      domain.LoyaltyAssociation `json:"loyalty"`
	Items        []ItemSnapshot            `json:"items"`
	Total        decimal.Decimal           `json:"total"`
	Empty        bool                      `json:"empty"`
}

type ItemSnapshot struct {
	ItemID    domain.ID       `json:"itemId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Unit      *int            `json:"unit,omitempty"`
}

// Snapshot copies the current draft state.
func (d *Draft) Snapshot() Snapshot {
	items := make([]ItemSnapshot, 0, len(d.items))
	for _, li := range d.items {
		items = append(items, ItemSnapshot{
			ItemID:    li.ItemID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			Subtotal:  li.Subtotal(),
			Unit:      li.Unit,
		})
	}
	return Snapshot{
		Customer:     clone(d.customer),
		Account:      clone(d.account),
		Organization: clone(d.organization),
		Warehouse:    clone(d.warehouse),
		PriceType:    clone(d.priceType),
		Loyalty:      d.loyalty,
		Items:        items,
		Total:        d.Total(),
		Empty:        d.IsEmpty(),
	}
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
