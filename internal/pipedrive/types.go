package pipedrive

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a lenient decimal: numbers, numeric strings, empty strings and
// null all decode, the last two as zero.
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Decimal = parseDecimal(s)
		return nil
	}
	a.Decimal = parseDecimal(string(data))
	return nil
}

// Deal is the subset of a Pipedrive deal the sync reads.
type Deal struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
	WonTime  string `json:"won_time"`
	Value    Amount `json:"value"`
}

// DealProduct is a product attached to a deal.
type DealProduct struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Quantity     Amount `json:"quantity"`
	ItemPrice    Amount `json:"item_price"`
	Discount     Amount `json:"discount"`
	DiscountType string `json:"discount_type"`
}

// DealProducts is the product list of a deal plus its reported total.
type DealProducts struct {
	Items            []DealProduct
	ProductsSumTotal decimal.Decimal
}

// Product holds every field of a product record, keyed by field key, so
// custom fields can be read without a schema.
type Product map[string]json.RawMessage

// String returns the field as text. Numbers are returned in their JSON form.
func (p Product) String(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}

// Decimal returns the numeric value of a field and whether it was present
// and non-null.
func (p Product) Decimal(key string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(p.String(key))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
