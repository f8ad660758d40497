package submission

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is one journaled submission attempt. It describes the outcome and the
// document that was sent; the draft itself is never stored.
type Record struct {
	ID           uuid.UUID
	SessionID    string
	Mode         string
	Succeeded    bool
	Message      string
	ContragentID int64
	Total        decimal.Decimal
	ItemCount    int
	DocumentIDs  []int64
	Payload      json.RawMessage
	CreatedAt    time.Time
}

type Repository interface {
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	BySession(ctx context.Context, sessionID string) ([]Record, error)
}
