// Package workflow runs one operator's order composition session: the draft,
// the per-kind lookup caches, loyalty resolution and submission.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/lookup"
	"orderdesk/internal/metrics"
	"orderdesk/internal/order"
	"orderdesk/internal/repository/submission"
	"orderdesk/internal/service/loyalty"
	"orderdesk/internal/tablecrm"
)

// Remote is the typed view of the TableCRM API a session needs.
type Remote interface {
	Contragents(ctx context.Context, page int) ([]domain.Client, int, error)
	Payboxes(ctx context.Context, page int) ([]domain.Account, int, error)
	Organizations(ctx context.Context, page int) ([]domain.Organization, int, error)
	Warehouses(ctx context.Context, page int) ([]domain.Warehouse, int, error)
	PriceTypes(ctx context.Context, page int) ([]domain.PriceType, int, error)
	Nomenclature(ctx context.Context, page int) ([]domain.Product, int, error)
	LoyaltyCards(ctx context.Context, contragentID domain.ID) ([]domain.LoyaltyCard, error)
	CreateSales(ctx context.Context, doc order.Document) ([]domain.ID, error)
}

// Journal stores submission outcomes.
type Journal interface {
	Append(ctx context.Context, rec submission.Record) error
}

// Deps are the optional collaborators of a session.
type Deps struct {
	Journal     Journal
	Metrics     *metrics.Metrics
	Logger      *log.Logger
	DefaultUnit int
	Now         func() time.Time
}

// Session is one operator's workflow. Draft mutations are serialized; remote
// calls run outside the draft lock.
type Session struct {
	id      string
	remote  Remote
	creds   *tablecrm.Credentials
	loyalty *loyalty.Resolver
	journal Journal
	metrics *metrics.Metrics
	logger  *log.Logger
	unit    int
	now     func() time.Time

	mu    sync.Mutex
	draft *order.Draft
	// closed and every pending.Add are guarded by mu so Close's Wait never
	// races a new loyalty lookup.
	closed bool

	customers     *lookup.Picker[domain.Client]
	accounts      *lookup.Picker[domain.Account]
	organizations *lookup.Picker[domain.Organization]
	warehouses    *lookup.Picker[domain.Warehouse]
	priceTypes    *lookup.Picker[domain.PriceType]
	products      *lookup.Picker[domain.Product]
	sources       map[domain.Kind]lookup.Source

	submitting atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
	pending    sync.WaitGroup
}

// New starts a session with an empty draft.
func New(id string, remote Remote, creds *tablecrm.Credentials, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if creds == nil {
		creds = tablecrm.NewCredentials("")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		remote:  remote,
		creds:   creds,
		loyalty: loyalty.NewResolver(remote, deps.Metrics, logger),
		journal: deps.Journal,
		metrics: deps.Metrics,
		logger:  logger,
		unit:    deps.DefaultUnit,
		now:     now,
		draft:   order.NewDraft(),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.buildPickers()
	return s
}

func (s *Session) buildPickers() {
	observe := func(kind domain.Kind, err error) {
		s.metrics.RecordLookupPage(string(kind), err)
		if err != nil {
			s.logger.Printf("session %s: lookup %s failed: %v", s.id, kind, err)
		}
	}

	s.customers = lookup.NewPicker[domain.Client](domain.KindCustomers,
		func(c domain.Client) domain.ID { return c.ID },
		s.remote.Contragents,
		func(c domain.Client) []string { return []string{c.Name, c.Phone, c.INN} },
	).WithObserver(observe)
	s.accounts = lookup.NewPicker[domain.Account](domain.KindAccounts,
		func(a domain.Account) domain.ID { return a.ID },
		s.remote.Payboxes,
		func(a domain.Account) []string { return []string{a.Name, a.Number} },
	).WithObserver(observe)
	s.organizations = lookup.NewPicker[domain.Organization](domain.KindOrganizations,
		func(o domain.Organization) domain.ID { return o.ID },
		s.remote.Organizations,
		func(o domain.Organization) []string { return []string{o.Name, o.INN} },
	).WithObserver(observe)
	s.warehouses = lookup.NewPicker[domain.Warehouse](domain.KindWarehouses,
		func(w domain.Warehouse) domain.ID { return w.ID },
		s.remote.Warehouses,
		func(w domain.Warehouse) []string { return []string{w.Name, w.Address} },
	).WithObserver(observe)
	s.priceTypes = lookup.NewPicker[domain.PriceType](domain.KindPriceTypes,
		func(p domain.PriceType) domain.ID { return p.ID },
		s.remote.PriceTypes,
		func(p domain.PriceType) []string { return []string{p.Name} },
	).WithObserver(observe)
	s.products = lookup.NewPicker[domain.Product](domain.KindProducts,
		func(p domain.Product) domain.ID { return p.ID },
		s.remote.Nomenclature,
		func(p domain.Product) []string { return []string{p.Name, p.Code} },
	).WithObserver(observe).WithHidden(func(p domain.Product) bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.draft.HasItem(p.ID)
	})

	s.sources = map[domain.Kind]lookup.Source{
		domain.KindCustomers:     s.customers,
		domain.KindAccounts:      s.accounts,
		domain.KindOrganizations: s.organizations,
		domain.KindWarehouses:    s.warehouses,
		domain.KindPriceTypes:    s.priceTypes,
		domain.KindProducts:      s.products,
	}
}

func (s *Session) ID() string { return s.id }

// SetToken replaces the session's API token. An empty token clears it.
func (s *Session) SetToken(token string) {
	s.creds.Set(token)
}

// HasCredential reports whether remote calls can be made.
func (s *Session) HasCredential() bool {
	return s.creds.Present()
}

func (s *Session) source(kind domain.Kind) (lookup.Source, error) {
	src, ok := s.sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrNotFound, kind)
	}
	return src, nil
}

func (s *Session) requireCredential() error {
	if !s.creds.Present() {
		return domain.ErrNoCredential
	}
	return nil
}

// Open performs the first lookup of kind, or nothing when it is already cached.
func (s *Session) Open(ctx context.Context, kind domain.Kind) error {
	src, err := s.source(kind)
	if err != nil {
		return err
	}
	if err := s.requireCredential(); err != nil {
		return err
	}
	return src.Open(ctx)
}

// LoadMore appends the next page of kind.
func (s *Session) LoadMore(ctx context.Context, kind domain.Kind) error {
	src, err := s.source(kind)
	if err != nil {
		return err
	}
	if err := s.requireCredential(); err != nil {
		return err
	}
	return src.LoadMore(ctx)
}

// Listing returns the cached entries of kind matching query.
func (s *Session) Listing(kind domain.Kind, query string) (lookup.Listing, error) {
	src, err := s.source(kind)
	if err != nil {
		return lookup.Listing{}, err
	}
	return src.Listing(query), nil
}

// Select picks the entity id of kind into the draft, paging through the remote
// collection until it is found. Selecting a product adds it as a line item.
func (s *Session) Select(ctx context.Context, kind domain.Kind, id domain.ID) error {
	if _, err := s.source(kind); err != nil {
		return err
	}
	if err := s.requireCredential(); err != nil {
		return err
	}

	switch kind {
	case domain.KindCustomers:
		c, err := s.customers.Seek(ctx, id)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.resolveLoyaltyLocked(s.draft.SelectCustomer(c))
		s.mu.Unlock()
	case domain.KindAccounts:
		a, err := s.accounts.Seek(ctx, id)
		if err != nil {
			return err
		}
		s.withDraft(func(d *order.Draft) { d.SelectAccount(a) })
	case domain.KindOrganizations:
		o, err := s.organizations.Seek(ctx, id)
		if err != nil {
			return err
		}
		s.withDraft(func(d *order.Draft) { d.SelectOrganization(o) })
	case domain.KindWarehouses:
		w, err := s.warehouses.Seek(ctx, id)
		if err != nil {
			return err
		}
		s.withDraft(func(d *order.Draft) { d.SelectWarehouse(w) })
	case domain.KindPriceTypes:
		p, err := s.priceTypes.Seek(ctx, id)
		if err != nil {
			return err
		}
		s.withDraft(func(d *order.Draft) { d.SelectPriceType(p) })
	case domain.KindProducts:
		return s.AddItem(ctx, id)
	}
	return nil
}

// Clear deselects kind. Products have no selection to clear.
func (s *Session) Clear(kind domain.Kind) error {
	if _, err := s.source(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.KindCustomers:
		s.draft.ClearCustomer()
	case domain.KindAccounts:
		s.draft.ClearAccount()
	case domain.KindOrganizations:
		s.draft.ClearOrganization()
	case domain.KindWarehouses:
		s.draft.ClearWarehouse()
	case domain.KindPriceTypes:
		s.draft.ClearPriceType()
	default:
		return fmt.Errorf("%w: %s has no selection", domain.ErrNotFound, kind)
	}
	return nil
}

// resolveLoyaltyLocked looks the card up in the background. The result is kept
// only if tag still names the current customer selection. s.mu must be held.
func (s *Session) resolveLoyaltyLocked(tag order.LoyaltyTag) {
	if s.closed {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		assoc := s.loyalty.Resolve(s.ctx, tag.CustomerID)
		s.mu.Lock()
		kept := s.draft.AttachLoyalty(tag, assoc)
		s.mu.Unlock()
		if !kept {
			s.loyalty.Discarded(tag.CustomerID)
		}
	}()
}

// AddItem adds the product id to the draft at quantity 1.
func (s *Session) AddItem(ctx context.Context, productID domain.ID) error {
	if err := s.requireCredential(); err != nil {
		return err
	}
	if s.hasItem(productID) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateItem, productID)
	}
	p, err := s.products.Seek(ctx, productID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.AddLineItem(p)
}

// SetQuantity changes the quantity of a line item.
func (s *Session) SetQuantity(itemID domain.ID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.SetQuantity(itemID, qty)
}

// RemoveItem drops a line item; unknown ids are ignored.
func (s *Session) RemoveItem(itemID domain.ID) {
	s.withDraft(func(d *order.Draft) { d.RemoveLineItem(itemID) })
}

func (s *Session) hasItem(id domain.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.HasItem(id)
}

// Snapshot copies the current draft.
func (s *Session) Snapshot() order.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Snapshot()
}

// Reset empties the draft. Lookup caches are kept.
func (s *Session) Reset() {
	s.withDraft(func(d *order.Draft) { d.Reset() })
}

func (s *Session) withDraft(fn func(d *order.Draft)) {
	s.mu.Lock()
	fn(s.draft)
	s.mu.Unlock()
}

// WaitIdle blocks until background loyalty lookups have finished.
func (s *Session) WaitIdle() {
	s.pending.Wait()
}

// Close cancels pending work and forgets the credential.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.creds.Clear()
	s.pending.Wait()
}
