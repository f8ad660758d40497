package domain

import "fmt"

// Kind names one remote entity collection the operator can pick from.
type Kind string

const (
	KindCustomers     Kind = "customers"
	KindAccounts      Kind = "accounts"
	KindOrganizations Kind = "organizations"
	KindWarehouses    Kind = "warehouses"
	KindPriceTypes    Kind = "price_types"
	KindProducts      Kind = "products"
)

// Kinds lists every pickable collection in display order.
var Kinds = []Kind{
	KindCustomers,
	KindAccounts,
	KindOrganizations,
	KindWarehouses,
	KindPriceTypes,
	KindProducts,
}

// ParseKind accepts the canonical kind names plus a few aliases used by the CLI.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "customers", "customer", "clients", "contragents":
		return KindCustomers, nil
	case "accounts", "account", "payboxes":
		return KindAccounts, nil
	case "organizations", "organization", "orgs":
		return KindOrganizations, nil
	case "warehouses", "warehouse":
		return KindWarehouses, nil
	case "price_types", "price-types", "price_type", "price-type", "prices":
		return KindPriceTypes, nil
	case "products", "product", "nomenclature", "items":
		return KindProducts, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrNotFound, s)
	}
}
