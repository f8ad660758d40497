package tablecrm

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
)

type stubCaller struct {
	responses map[string]string
	lastPath  string
	lastQuery url.Values
	lastBody  any
}

func (s *stubCaller) Get(_ context.Context, path string, params url.Values) (json.RawMessage, error) {
	s.lastPath = path
	s.lastQuery = params
	return json.RawMessage(s.responses[path]), nil
}

func (s *stubCaller) Post(_ context.Context, path string, body any) (json.RawMessage, error) {
	s.lastPath = path
	s.lastBody = body
	return json.RawMessage(s.responses[path]), nil
}

func TestCatalog_ContragentsPaging(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathContragents: `{"result":[{"id":42,"name":"Ivan","phone":"+79001112233","inn":"7701"}],"count":250}`,
	}}
	cat := NewCatalog(caller, 100)

	items, total, err := cat.Contragents(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 250, total)
	require.Len(t, items, 1)
	assert.Equal(t, domain.Client{ID: 42, Name: "Ivan", Phone: "+79001112233", INN: "7701"}, items[0])
	assert.Equal(t, "100", caller.lastQuery.Get("limit"))
	assert.Equal(t, "200", caller.lastQuery.Get("offset"))
}

func TestCatalog_PayboxesBareArrayAndFallbacks(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathPayboxes: `[{"id":"7","title":"Main desk","account_number":"4070"},{"id":8}]`,
	}}
	items, total, err := NewCatalog(caller, 0).Payboxes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, domain.Account{ID: 7, Name: "Main desk", Number: "4070"}, items[0])
	assert.Equal(t, "Без названия", items[1].Name)
	assert.Equal(t, "100", caller.lastQuery.Get("limit"))
}

func TestCatalog_OrganizationNameFallback(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathOrganizations: `{"result":[{"id":3,"work_name":"Horns","full_name":"LLC Horns and Hooves","org_type":"llc"}],"count":1}`,
	}}
	items, _, err := NewCatalog(caller, 10).Organizations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Horns", items[0].Name)
	assert.Equal(t, "llc", items[0].Type)
}

func TestCatalog_NomenclatureMapping(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathNomenclature: `{"result":[{"id":100,"name":"Coffee","code":"CF-1","unit":116,"unit_name":"pcs",
			"prices":[{"price":150.0,"price_type":"retail"},{"price":120,"price_type":"wholesale"}],
			"balances":[{"warehouse_name":"A","current_amount":3},{"warehouse_name":"B","current_amount":2.5}]},
			{"id":101}],"count":2}`,
	}}
	items, total, err := NewCatalog(caller, 10).Nomenclature(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	coffee := items[0]
	assert.Equal(t, domain.ID(100), coffee.ID)
	require.NotNil(t, coffee.Unit)
	assert.Equal(t, 116, *coffee.Unit)
	assert.True(t, coffee.FirstPrice().Equal(decimal.NewFromInt(150)))
	assert.True(t, coffee.Stock.Equal(decimal.RequireFromString("5.5")))

	bare := items[1]
	assert.Equal(t, "Без названия", bare.Name)
	assert.Nil(t, bare.Unit)
	assert.True(t, bare.FirstPrice().IsZero())
}

func TestCatalog_LoyaltyCards(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathLoyaltyCards: `{"result":[{"id":77,"card_number":5500,"balance":10.5,"contragent_id":42,"cashback_percent":3,"status_card":true}],"count":1}`,
	}}
	cards, err := NewCatalog(caller, 10).LoyaltyCards(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, domain.ID(77), cards[0].ID)
	assert.Equal(t, int64(5500), cards[0].CardNumber)
	assert.True(t, cards[0].Active)
	assert.Equal(t, "42", caller.lastQuery.Get("contragent_id"))
}

func TestCatalog_CreateSalesWrapsSingleDocument(t *testing.T) {
	caller := &stubCaller{responses: map[string]string{
		PathDocsSales: `[{"id":9001,"number":"17"}]`,
	}}
	ids, err := NewCatalog(caller, 10).CreateSales(context.Background(), order.Document{Operation: order.OperationOrder})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{9001}, ids)

	docs, ok := caller.lastBody.([]order.Document)
	require.True(t, ok)
	assert.Len(t, docs, 1)
}

func TestCreatedIDs_Envelope(t *testing.T) {
	assert.Equal(t, []domain.ID{1, 2}, createdIDs(json.RawMessage(`{"result":[{"id":1},{"id":"2"}]}`)))
	assert.Empty(t, createdIDs(json.RawMessage(`"ok"`)))
}
