package tablecrm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"orderdesk/internal/domain"
)

// Collection paths of the remote API.
const (
	PathContragents   = "/contragents/"
	PathLoyaltyCards  = "/loyality_cards/"
	PathPayboxes      = "/payboxes/"
	PathOrganizations = "/organizations/"
	PathWarehouses    = "/warehouses/"
	PathPriceTypes    = "/price_types/"
	PathNomenclature  = "/nomenclature/"
	PathDocsSales     = "/docs_sales/"
)

const untitled = "Без названия"

// decodeList accepts both the {"result": [...], "count": n} envelope and a
// bare JSON array. A bare array is a complete collection.
func decodeList[T any](raw json.RawMessage) ([]T, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("decode list: %w", err)
		}
		return items, len(items), nil
	}
	var envelope struct {
		Result []T `json:"result"`
		Count  int `json:"count"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, 0, fmt.Errorf("decode list: %w", err)
	}
	return envelope.Result, envelope.Count, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type contragentDTO struct {
	ID        domain.ID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	PhoneCode string    `json:"phone_code"`
	INN       string    `json:"inn"`
	Email     string    `json:"email"`
}

func (d contragentDTO) toDomain() domain.Client {
	return domain.Client{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		PhoneCode: d.PhoneCode,
		INN:       d.INN,
		Email:     d.Email,
	}
}

type loyaltyCardDTO struct {
	ID              domain.ID       `json:"id"`
	CardNumber      json.Number     `json:"card_number"`
	Balance         decimal.Decimal `json:"balance"`
	ContragentID    domain.ID       `json:"contragent_id"`
	CashbackPercent decimal.Decimal `json:"cashback_percent"`
	StatusCard      bool            `json:"status_card"`
}

func (d loyaltyCardDTO) toDomain() domain.LoyaltyCard {
	number, _ := d.CardNumber.Int64()
	return domain.LoyaltyCard{
		ID:              d.ID,
		CardNumber:      number,
		Balance:         d.Balance,
		ContragentID:    d.ContragentID,
		CashbackPercent: d.CashbackPercent,
		Active:          d.StatusCard,
	}
}

type payboxDTO struct {
	ID            domain.ID `json:"id"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	AccountNumber string    `json:"account_number"`
	Number        string    `json:"number"`
}

func (d payboxDTO) toDomain() domain.Account {
	return domain.Account{
		ID:     d.ID,
		Name:   firstNonEmpty(d.Name, d.Title, untitled),
		Number: firstNonEmpty(d.AccountNumber, d.Number),
	}
}

type organizationDTO struct {
	ID        domain.ID `json:"id"`
	ShortName string    `json:"short_name"`
	WorkName  string    `json:"work_name"`
	FullName  string    `json:"full_name"`
	INN       string    `json:"inn"`
	Type      string    `json:"type"`
	OrgType   string    `json:"org_type"`
}

func (d organizationDTO) toDomain() domain.Organization {
	return domain.Organization{
		ID:        d.ID,
		Name:      firstNonEmpty(d.ShortName, d.WorkName, d.FullName, untitled),
		ShortName: d.ShortName,
		INN:       d.INN,
		Type:      firstNonEmpty(d.Type, d.OrgType),
	}
}

type warehouseDTO struct {
	ID          domain.ID `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
}

func (d warehouseDTO) toDomain() domain.Warehouse {
	return domain.Warehouse{
		ID:          d.ID,
		Name:        firstNonEmpty(d.Name, untitled),
		Address:     d.Address,
		Type:        d.Type,
		Description: d.Description,
		Phone:       d.Phone,
	}
}

type priceTypeDTO struct {
	ID   domain.ID `json:"id"`
	Name string    `json:"name"`
	Tags []string  `json:"tags"`
}

func (d priceTypeDTO) toDomain() domain.PriceType {
	return domain.PriceType{ID: d.ID, Name: firstNonEmpty(d.Name, untitled), Tags: d.Tags}
}

type nomenclatureDTO struct {
	ID       domain.ID `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Unit     *int      `json:"unit"`
	UnitName string    `json:"unit_name"`
	Type     string    `json:"type"`
	Prices   []struct {
		Price     decimal.Decimal `json:"price"`
		PriceType string          `json:"price_type"`
	} `json:"prices"`
	Balances []struct {
		WarehouseName string          `json:"warehouse_name"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
	} `json:"balances"`
}

func (d nomenclatureDTO) toDomain() domain.Product {
	p := domain.Product{
		ID:       d.ID,
		Name:     firstNonEmpty(d.Name, untitled),
		Code:     d.Code,
		Unit:     d.Unit,
		UnitName: d.UnitName,
		Type:     d.Type,
		Prices:   make([]domain.ProductPrice, 0, len(d.Prices)),
		Balances: make([]domain.StockBalance, 0, len(d.Balances)),
		Stock:    decimal.Zero,
	}
	for _, pr := range d.Prices {
		p.Prices = append(p.Prices, domain.ProductPrice{Price: pr.Price, PriceType: pr.PriceType})
	}
	for _, b := range d.Balances {
		p.Balances = append(p.Balances, domain.StockBalance{WarehouseName: b.WarehouseName, CurrentAmount: b.CurrentAmount})
		p.Stock = p.Stock.Add(b.CurrentAmount)
	}
	return p
}

func mapAll[D any, T any](in []D, conv func(D) T) []T {
	out := make([]T, 0, len(in))
	for _, d := range in {
		out = append(out, conv(d))
	}
	return out
}
