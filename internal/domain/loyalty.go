package domain

// LoyaltyStatus is the resolution state of a customer's loyalty card.
type LoyaltyStatus string

const (
	LoyaltyUnresolved LoyaltyStatus = "unresolved"
	LoyaltyFound      LoyaltyStatus = "found"
	LoyaltyNotFound   LoyaltyStatus = "not_found"
)

// Reasons recorded for a NotFound association. They only feed logs and metrics.
const (
	LoyaltyReasonNone         = "none"
	LoyaltyReasonLookupFailed = "lookup_failed"
)

// LoyaltyAssociation is the loyalty card resolved for one customer, if any.
type LoyaltyAssociation struct {
	Status LoyaltyStatus `json:"status"`
	Card   *LoyaltyCard  `json:"card,omitempty"`
	Reason string        `json:"-"`
}

func LoyaltyFoundFor(card LoyaltyCard) LoyaltyAssociation {
	return LoyaltyAssociation{Status: LoyaltyFound, Card: &card}
}

func LoyaltyNotFoundBecause(reason string) LoyaltyAssociation {
	return LoyaltyAssociation{Status: LoyaltyNotFound, Reason: reason}
}

// CardID returns the card id when the association was found.
func (a LoyaltyAssociation) CardID() (ID, bool) {
	if a.Status != LoyaltyFound || a.Card == nil {
		return 0, false
	}
	return a.Card.ID, true
}
