package order

import "orderdesk/internal/domain"

// Validate reports the first missing required field, checked in the order
// customer, account, organization, warehouse, items. Price type is optional.
func Validate(d *Draft) error {
	switch {
	case d.customer == nil:
		return &domain.MissingFieldError{Field: domain.FieldCustomer}
	case d.account == nil:
		return &domain.MissingFieldError{Field: domain.FieldAccount}
	case d.organization == nil:
		return &domain.MissingFieldError{Field: domain.FieldOrganization}
	case d.warehouse == nil:
		return &domain.MissingFieldError{Field: domain.FieldWarehouse}
	case len(d.items) == 0:
		return &domain.MissingFieldError{Field: domain.FieldItems}
	}
	return nil
}
