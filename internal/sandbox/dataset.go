package sandbox

// Contragent, Paybox, ... mirror the wire shape of the remote collections.
type Contragent struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	INN   string `json:"inn,omitempty"`
	Email string `json:"email,omitempty"`
}

type LoyaltyCard struct {
	ID              int64   `json:"id"`
	CardNumber      int64   `json:"card_number"`
	Balance         float64 `json:"balance"`
	ContragentID    int64   `json:"contragent_id"`
	CashbackPercent float64 `json:"cashback_percent"`
	StatusCard      bool    `json:"status_card"`
}

type Paybox struct {
	ID            int64  `json:"id"`
	Name          string `json:"name,omitempty"`
	Title         string `json:"title,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

type Organization struct {
	ID        int64  `json:"id"`
	ShortName string `json:"short_name,omitempty"`
	WorkName  string `json:"work_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	INN       string `json:"inn,omitempty"`
	Type      string `json:"type,omitempty"`
}

type Warehouse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Archived bool   `json:"-"`
}

type PriceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Price struct {
	Price     float64 `json:"price"`
	PriceType string  `json:"price_type"`
}

type Balance struct {
	WarehouseName string  `json:"warehouse_name"`
	CurrentAmount float64 `json:"current_amount"`
}

type Nomenclature struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code,omitempty"`
	Unit     *int      `json:"unit,omitempty"`
	UnitName string    `json:"unit_name,omitempty"`
	Prices   []Price   `json:"prices"`
	Balances []Balance `json:"balances"`
}

// Dataset is everything the sandbox serves.
type Dataset struct {
	Contragents   []Contragent
	LoyaltyCards  []LoyaltyCard
	Payboxes      []Paybox
	Organizations []Organization
	Warehouses    []Warehouse
	PriceTypes    []PriceType
	Nomenclature  []Nomenclature
}

// Demo returns a small dataset for manual runs and tests.
func Demo() Dataset {
	pcs := 116
	kg := 166
	return Dataset{
		Contragents: []Contragent{
			{ID: 42, Name: "Ivan Petrov", Phone: "+79001112233", Email: "ivan@example.com"},
			{ID: 43, Name: "Olga Sidorova", Phone: "+79004445566"},
			{ID: 44, Name: "Horns and Hooves LLC", INN: "7701234567"},
			{ID: 45, Name: "Anna Smirnova", Phone: "+79007778899"},
			{ID: 46, Name: "Coffee Point", INN: "7809876543"},
		},
		LoyaltyCards: []LoyaltyCard{
			{ID: 77, CardNumber: 5500100, Balance: 120.5, ContragentID: 42, CashbackPercent: 3, StatusCard: true},
		},
		Payboxes: []Paybox{
			{ID: 7, Name: "Main cash desk", AccountNumber: "40702810900000000001"},
			{ID: 8, Title: "Card terminal"},
			{ID: 9},
		},
		Organizations: []Organization{
			{ID: 3, ShortName: "Horns", FullName: "LLC Horns and Hooves", INN: "7701234567", Type: "llc"},
			{ID: 4, WorkName: "Desk Trading", INN: "7800000001"},
		},
		Warehouses: []Warehouse{
			{ID: 9, Name: "Main warehouse", Address: "Lenina 1"},
			{ID: 10, Name: "Old depot", Address: "Portovaya 5", Archived: true},
		},
		PriceTypes: []PriceType{
			{ID: 5, Name: "Retail"},
			{ID: 6, Name: "Wholesale"},
		},
		Nomenclature: []Nomenclature{
			{ID: 100, Name: "Coffee beans 1kg", Code: "CF-1", Unit: &pcs, UnitName: "pcs",
				Prices:   []Price{{Price: 150, PriceType: "Retail"}, {Price: 120, PriceType: "Wholesale"}},
				Balances: []Balance{{WarehouseName: "Main warehouse", CurrentAmount: 12}, {WarehouseName: "Old depot", CurrentAmount: 3}}},
			{ID: 101, Name: "Green tea", Code: "TE-1", Unit: &pcs,
				Prices: []Price{{Price: 80.5, PriceType: "Retail"}}},
			{ID: 102, Name: "Sugar", Code: "SG-1", Unit: &kg, UnitName: "kg",
				Prices: []Price{{Price: 65, PriceType: "Retail"}}},
			{ID: 103, Name: "Paper cups", Code: "PC-250"},
		},
	}
}
