package tablecrm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
)

// DefaultPageLimit is the page size used by every lookup.
const DefaultPageLimit = 100

// Caller is the transport the catalog issues requests through.
type Caller interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Catalog exposes the remote collections as typed, paged lookups.
type Catalog struct {
	caller Caller
	limit  int
}

// NewCatalog builds a catalog paging by limit entries.
func NewCatalog(caller Caller, limit int) *Catalog {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Catalog{caller: caller, limit: limit}
}

func (c *Catalog) pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{
		"limit":  {strconv.Itoa(c.limit)},
		"offset": {strconv.Itoa((page - 1) * c.limit)},
	}
}

func fetchPage[D any, T any](ctx context.Context, c *Catalog, path string, page int, conv func(D) T) ([]T, int, error) {
	raw, err := c.caller.Get(ctx, path, c.pageParams(page))
	if err != nil {
		return nil, 0, err
	}
	dtos, total, err := decodeList[D](raw)
	if err != nil {
		return nil, 0, err
	}
	return mapAll(dtos, conv), total, nil
}

func (c *Catalog) Contragents(ctx context.Context, page int) ([]domain.Client, int, error) {
	return fetchPage(ctx, c, PathContragents, page, contragentDTO.toDomain)
}

func (c *Catalog) Payboxes(ctx context.Context, page int) ([]domain.Account, int, error) {
	return fetchPage(ctx, c, PathPayboxes, page, payboxDTO.toDomain)
}

func (c *Catalog) Organizations(ctx context.Context, page int) ([]domain.Organization, int, error) {
	return fetchPage(ctx, c, PathOrganizations, page, organizationDTO.toDomain)
}

func (c *Catalog) Warehouses(ctx context.Context, page int) ([]domain.Warehouse, int, error) {
	return fetchPage(ctx, c, PathWarehouses, page, warehouseDTO.toDomain)
}

func (c *Catalog) PriceTypes(ctx context.Context, page int) ([]domain.PriceType, int, error) {
	return fetchPage(ctx, c, PathPriceTypes, page, priceTypeDTO.toDomain)
}

func (c *Catalog) Nomenclature(ctx context.Context, page int) ([]domain.Product, int, error) {
	return fetchPage(ctx, c, PathNomenclature, page, nomenclatureDTO.toDomain)
}

// LoyaltyCards lists the cards linked to a contragent.
func (c *Catalog) LoyaltyCards(ctx context.Context, contragentID domain.ID) ([]domain.LoyaltyCard, error) {
	raw, err := c.caller.Get(ctx, PathLoyaltyCards, url.Values{"contragent_id": {contragentID.String()}})
	if err != nil {
		return nil, err
	}
	dtos, _, err := decodeList[loyaltyCardDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapAll(dtos, loyaltyCardDTO.toDomain), nil
}

// CreateSales posts one sales document and returns the ids the remote
// assigned, when it reports them.
func (c *Catalog) CreateSales(ctx context.Context, doc order.Document) ([]domain.ID, error) {
	raw, err := c.caller.Post(ctx, PathDocsSales, []order.Document{doc})
	if err != nil {
		return nil, err
	}
	return createdIDs(raw), nil
}

// createdIDs pulls document ids out of a docs_sales response, which is either
// a list of documents or an envelope around one.
func createdIDs(raw json.RawMessage) []domain.ID {
	type created struct {
		ID domain.ID `json:"id"`
	}
	trimmed := bytes.TrimSpace(raw)
	var docs []created
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil
		}
	} else {
		var envelope struct {
			Result []created `json:"result"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil
		}
		docs = envelope.Result
	}
	ids := make([]domain.ID, 0, len(docs))
	for _, d := range docs {
		if d.ID != 0 {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
