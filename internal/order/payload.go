package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects whether the order is only created or also posted.
type Mode int

const (
	ModeDraft Mode = iota
	ModePosted
)

func (m Mode) String() string {
	if m == ModePosted {
		return "posted"
	}
	return "draft"
}

// ParseMode accepts "draft" and "posted" (and "post").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "draft":
		return ModeDraft, nil
	case "posted", "post":
		return ModePosted, nil
	default:
		return ModeDraft, fmt.Errorf("unknown submission mode %q", s)
	}
}

// SuccessMessage is the operator-facing outcome of a successful submission.
func (m Mode) SuccessMessage() string {
	if m == ModePosted {
		return "draft created and posted"
	}
	return "draft created"
}

const (
	// OperationOrder tags the document as a sales order.
	OperationOrder = "Заказ"
	// DefaultUnitID is used for items whose catalog entry has no unit.
	DefaultUnitID = 116
)

// Good is one row of the goods array of a sales document.
type Good struct {
	Price         json.Number `json:"price"`
	Quantity      int         `json:"quantity"`
	Unit          int         `json:"unit"`
	Discount      int         `json:"discount"`
	SumDiscounted int         `json:"sum_discounted"`
	Nomenclature  int64       `json:"nomenclature"`
}

// Document is the sales document accepted by the remote docs_sales collection.
type Document struct {
	Priority      int            `json:"priority"`
	Dated         int64          `json:"dated"`
	Operation     string         `json:"operation"`
	TaxIncluded   bool           `json:"tax_included"`
	TaxActive     bool           `json:"tax_active"`
	Goods         []Good         `json:"goods"`
	Settings      map[string]any `json:"settings"`
	Warehouse     int64          `json:"warehouse"`
	Contragent    int64          `json:"contragent"`
	Paybox        int64          `json:"paybox"`
	Organization  int64          `json:"organization"`
	Status        bool           `json:"status"`
	PaidRubles    string         `json:"paid_rubles"`
	PaidLT        int            `json:"paid_lt"`
	LoyaltyCardID *int64         `json:"loyality_card_id,omitempty"`
}

// BuildDocument validates d and maps it to a sales document dated now.
// A zero defaultUnit falls back to DefaultUnitID.
func BuildDocument(d *Draft, mode Mode, now time.Time, defaultUnit int) (Document, error) {
	if err := Validate(d); err != nil {
		return Document{}, err
	}
	if defaultUnit == 0 {
		defaultUnit = DefaultUnitID
	}

	goods := make([]Good, 0, len(d.items))
	for _, li := range d.items {
		unit := defaultUnit
		if li.Unit != nil && *li.Unit != 0 {
			unit = *li.Unit
		}
		goods = append(goods, Good{
			Price:        json.Number(li.UnitPrice.String()),
			Quantity:     li.Quantity,
			Unit:         unit,
			Nomenclature: int64(li.ItemID),
		})
	}

	doc := Document{
		Dated:        now.Unix(),
		Operation:    OperationOrder,
		TaxIncluded:  true,
		TaxActive:    true,
		Goods:        goods,
		Settings:     map[string]any{},
		Warehouse:    int64(d.warehouse.ID),
		Contragent:   int64(d.customer.ID),
		Paybox:       int64(d.account.ID),
		Organization: int64(d.organization.ID),
		Status:       mode == ModePosted,
		PaidRubles:   d.Total().StringFixed(2),
	}
	if cardID, ok := d.loyalty.CardID(); ok {
		id := int64(cardID)
		doc.LoyaltyCardID = &id
	}
	return doc, nil
}
