package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
	"orderdesk/internal/repository/submission"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

const pageSize = 2

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRemote struct {
	mu sync.Mutex

	customers     []domain.Client
	accounts      []domain.Account
	organizations []domain.Organization
	warehouses    []domain.Warehouse
	priceTypes    []domain.PriceType
	products      []domain.Product

	cards       map[domain.ID][]domain.LoyaltyCard
	cardGates   map[domain.ID]chan struct{}
	cardErr     error
	cardLookups []domain.ID

	createGate    chan struct{}
	createEntered chan struct{}
	createErr     error
	createIDs     []domain.ID
	docs          []order.Document

	pageCalls map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		customers: []domain.Client{
			{ID: 42, Name: "Ivan Petrov", Phone: "+79001112233"},
			{ID: 43, Name: "Olga Sidorova", Phone: "+79004445566"},
			{ID: 44, Name: "Horns LLC", INN: "7701234567"},
		},
		accounts:      []domain.Account{{ID: 7, Name: "Cash desk", Number: "4070"}},
		organizations: []domain.Organization{{ID: 3, Name: "LLC Horns"}},
		warehouses:    []domain.Warehouse{{ID: 9, Name: "Main", Address: "Lenina 1"}},
		priceTypes:    []domain.PriceType{{ID: 5, Name: "Retail"}},
		products: []domain.Product{
			{ID: 100, Name: "Coffee beans", Code: "CF-1", Prices: []domain.ProductPrice{{Price: decimal.RequireFromString("150.00")}}},
			{ID: 101, Name: "Tea", Code: "TE-1", Prices: []domain.ProductPrice{{Price: decimal.RequireFromString("80.50")}}},
			{ID: 102, Name: "Sugar", Code: "SG-1"},
		},
		cards:     map[domain.ID][]domain.LoyaltyCard{},
		cardGates: map[domain.ID]chan struct{}{},
		createIDs: []domain.ID{9001},
		pageCalls: map[string]int{},
	}
}

func paged[T any](r *fakeRemote, name string, all []T, page int) ([]T, int, error) {
	r.mu.Lock()
	r.pageCalls[name]++
	r.mu.Unlock()
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return append([]T(nil), all[start:end]...), len(all), nil
}

func (r *fakeRemote) Contragents(_ context.Context, page int) ([]domain.Client, int, error) {
	return paged(r, "customers", r.customers, page)
}

func (r *fakeRemote) Payboxes(_ context.Context, page int) ([]domain.Account, int, error) {
	return paged(r, "accounts", r.accounts, page)
}

func (r *fakeRemote) Organizations(_ context.Context, page int) ([]domain.Organization, int, error) {
	return paged(r, "organizations", r.organizations, page)
}

func (r *fakeRemote) Warehouses(_ context.Context, page int) ([]domain.Warehouse, int, error) {
	return paged(r, "warehouses", r.warehouses, page)
}

func (r *fakeRemote) PriceTypes(_ context.Context, page int) ([]domain.PriceType, int, error) {
	return paged(r, "price_types", r.priceTypes, page)
}

func (r *fakeRemote) Nomenclature(_ context.Context, page int) ([]domain.Product, int, error) {
	return paged(r, "products", r.products, page)
}

func (r *fakeRemote) LoyaltyCards(ctx context.Context, id domain.ID) ([]domain.LoyaltyCard, error) {
	r.mu.Lock()
	r.cardLookups = append(r.cardLookups, id)
	gate := r.cardGates[id]
	cards := r.cards[id]
	err := r.cardErr
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return cards, err
}

func (r *fakeRemote) CreateSales(_ context.Context, doc order.Document) ([]domain.ID, error) {
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	gate, entered := r.createGate, r.createEntered
	r.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	return r.createIDs, nil
}

func (r *fakeRemote) submitted() []order.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]order.Document(nil), r.docs...)
}

func (r *fakeRemote) lookups() []domain.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ID(nil), r.cardLookups...)
}

func (r *fakeRemote) calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pageCalls[name]
}

type memJournal struct {
	mu      sync.Mutex
	records []submission.Record
	err     error
}

func (j *memJournal) Append(_ context.Context, rec submission.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, rec)
	return nil
}

func newSession(t *testing.T, remote *fakeRemote, deps workflow.Deps) *workflow.Session {
	t.Helper()
	if deps.Now == nil {
		deps.Now = func() time.Time { return fixedNow }
	}
	s := workflow.New("s-1", remote, tablecrm.NewCredentials("secret"), deps)
	t.Cleanup(s.Close)
	return s
}
