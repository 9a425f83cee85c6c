package dealsync

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings carries the fixed Katana identifiers and defaults the pipeline
// writes into every order.
type Settings struct {
	LocationID          int64
	TaxRateEUR          int64
	TaxRateGBP          int64
	CustomItemVariantID int64
	LeadTime            time.Duration
	DefaultVATRate      int
	DefaultCurrency     string
	CustomerCurrency    string
	ProductUnit         string
	SKUFieldKey         string
	Source              string

	PageSize int
	MaxPages int

	// StrictDuplicateCheck aborts the sync when the existing-order lookup
	// itself fails instead of treating the order as absent.
	StrictDuplicateCheck bool
}

// DefaultSettings mirrors the production Katana account.
func DefaultSettings() Settings {
	return Settings{
		LocationID:          166154,
		TaxRateEUR:          423653,
		TaxRateGBP:          459884,
		CustomItemVariantID: 38207669,
		LeadTime:            14 * 24 * time.Hour,
		DefaultVATRate:      23,
		DefaultCurrency:     "EUR",
		CustomerCurrency:    "EUR",
		ProductUnit:         "piece",
		SKUFieldKey:         "43a32efde94b5e07af24690d5b8db5dc18f5680a",
		Source:              "pipedrive",
		PageSize:            1000,
		MaxPages:            10,
	}
}

// DealID is a Pipedrive deal identifier. Requests send it as a number or a
// string; zero and empty both mean "absent".
type DealID string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DealID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*d = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DealID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			*d = ""
			return nil
		}
		*d = DealID(n.String())
	}
	return nil
}

// CustomerInput names the buyer explicitly.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductInput is a line item supplied inline with the request.
type ProductInput struct {
	Name            string              `json:"name"`
	SKU             string              `json:"sku"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	PricePerUnit    decimal.NullDecimal `json:"price_per_unit"`
	ItemPrice       decimal.NullDecimal `json:"item_price"`
	VATRate         decimal.NullDecimal `json:"vat_rate"`
	Currency        string              `json:"currency"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
}

// SyncRequest is the inbound body of a deal sync.
type SyncRequest struct {
	DealID    DealID         `json:"deal_id" validate:"required"`
	Products  []ProductInput `json:"products,omitempty"`
	WonTime   string         `json:"won_time,omitempty"`
	DealTitle string         `json:"deal_title,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	Customer  *CustomerInput `json:"customer,omitempty"`
}

// LineItem is a normalized deal line.
type LineItem struct {
	Name            string
	SKU             string
	Quantity        int64
	Price           decimal.Decimal
	VATRate         int
	Currency        string
	DiscountPercent decimal.Decimal
}

// Deal is the resolved deal the order is assembled from.
type Deal struct {
	ID            string
	Title         string
	Currency      string
	WonTime       string
	CustomerName  string
	CustomerEmail string
	Items         []LineItem
}

// CustomItem records a line that landed on the placeholder variant.
type CustomItem struct {
	Row      int
	Name     string
	SKU      string
	Quantity int64
	Price    decimal.Decimal
}

// Result is the outcome of a successful sync.
type Result struct {
	OrderID          int64  `json:"order_id"`
	OrderNo          string `json:"order_no"`
	CustomItemsCount int    `json:"custom_items_count"`
}

func (p ProductInput) lineItem(currency string, defaultVAT int) LineItem {
	price := p.PricePerUnit
	if !price.Valid {
		price = p.ItemPrice
	}
	vat := defaultVAT
	if p.VATRate.Valid {
		vat = int(p.VATRate.Decimal.IntPart())
	}
	if p.Currency != "" {
		currency = p.Currency
	}
	return LineItem{
		Name:            p.Name,
		SKU:             p.SKU,
		Quantity:        p.Quantity.Decimal.IntPart(),
		Price:           price.Decimal,
		VATRate:         vat,
		Currency:        currency,
		DiscountPercent: p.DiscountPercent.Decimal,
	}
}
