package domain

import "github.com/shopspring/decimal"

// Client is a counterparty (contragent) the order is sold to.
type Client struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	PhoneCode string `json:"phoneCode,omitempty"`
	INN       string `json:"inn,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName falls back to the phone number for unnamed clients.
func (c Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Phone
}

// LoyaltyCard is a loyalty-program card linked to a client.
type LoyaltyCard struct {
	ID              ID              `json:"id"`
	CardNumber      int64           `json:"cardNumber"`
	Balance         decimal.Decimal `json:"balance"`
	ContragentID    ID              `json:"contragentId"`
	CashbackPercent decimal.Decimal `json:"cashbackPercent"`
	Active          bool            `json:"active"`
}
