package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrRemoteUnavailable wraps every transport or HTTP failure talking to the remote API.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrNoCredential is returned when a remote call is attempted without an API token.
	ErrNoCredential = errors.New("authorization token required")
	// ErrDuplicateItem is returned when a catalog item is already part of the draft.
	ErrDuplicateItem = errors.New("item already in order")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned when a line item id is not part of the draft.
	ErrItemNotFound = errors.New("line item not found")
	// ErrMissingField is matched by every *MissingFieldError.
	ErrMissingField = errors.New("missing required field")
	// ErrSubmissionFailed is matched by every *SubmissionError.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrBusy is returned when the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// Field names reported by MissingFieldError, in validation order.
const (
	FieldCustomer     = "customer"
	FieldAccount      = "account"
	FieldOrganization = "organization"
	FieldWarehouse    = "warehouse"
	FieldItems        = "items"
)

// MissingFieldError reports the first required draft field that is empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// DefaultSubmissionMessage is shown when the remote rejects an order without saying why.
const DefaultSubmissionMessage = "order submission failed, check the data and try again"

// SubmissionError carries the user-facing reason the remote rejected an order.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmissionFailed}
	}
	return []error{ErrSubmissionFailed, e.Err}
}
