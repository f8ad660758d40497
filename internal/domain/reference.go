package domain

// Account is a payment account (paybox) receiving the order payment.
type Account struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
}

// Organization is the selling legal entity.
type Organization struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
	INN       string `json:"inn,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Warehouse is the stock location goods ship from.
type Warehouse struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// PriceType is a price list. Selecting one is informational only.
type PriceType struct {
	ID   ID       `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}
