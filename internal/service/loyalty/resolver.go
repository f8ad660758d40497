// Package loyalty resolves the loyalty card linked to a customer.
package loyalty

import (
	"context"
	"io"
	"log"

	"orderdesk/internal/domain"
	"orderdesk/internal/metrics"
)

// Outcome labels recorded per resolution.
const (
	OutcomeFound        = "found"
	OutcomeNone         = domain.LoyaltyReasonNone
	OutcomeLookupFailed = domain.LoyaltyReasonLookupFailed
	OutcomeStale        = "stale"
)

// CardSource lists the loyalty cards of a contragent.
type CardSource interface {
	LoyaltyCards(ctx context.Context, contragentID domain.ID) ([]domain.LoyaltyCard, error)
}

type Resolver struct {
	source  CardSource
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewResolver(source CardSource, m *metrics.Metrics, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{source: source, metrics: m, logger: logger}
}

// Resolve returns the association for customerID. It never fails: lookup
// errors degrade to NotFound with the lookup_failed reason.
func (r *Resolver) Resolve(ctx context.Context, customerID domain.ID) domain.LoyaltyAssociation {
	cards, err := r.source.LoyaltyCards(ctx, customerID)
	if err != nil {
		r.logger.Printf("loyalty lookup for contragent %s failed: %v", customerID, err)
		r.metrics.RecordLoyalty(OutcomeLookupFailed)
		return domain.LoyaltyNotFoundBecause(domain.LoyaltyReasonLookupFailed)
	}
	if len(cards) == 0 {
		r.metrics.RecordLoyalty(OutcomeNone)
		return domain.LoyaltyNotFoundBecause(domain.LoyaltyReasonNone)
	}
	r.metrics.RecordLoyalty(OutcomeFound)
	return domain.LoyaltyFoundFor(cards[0])
}

// Discarded records a resolution that finished after its customer selection changed.
func (r *Resolver) Discarded(customerID domain.ID) {
	r.logger.Printf("discarding stale loyalty result for contragent %s", customerID)
	r.metrics.RecordLoyalty(OutcomeStale)
}
