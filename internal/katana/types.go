package katana

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Ref is an identifier Katana may encode either as a JSON string or number.
type Ref string

// UnmarshalJSON accepts strings, numbers and null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

// String returns the trimmed textual form.
func (r Ref) String() string {
	return strings.TrimSpace(string(r))
}

// Page selects one slice of a list endpoint.
type Page struct {
	Start int
	Limit int
}

// Customer is a Katana customer record.
type Customer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// CreateCustomerRequest is the payload for POST /customers.
type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

// Product is a Katana product record.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// CreateProductRequest is the payload for POST /products.
type CreateProductRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Unit string `json:"unit"`
}

// Variant is a sellable SKU under a product.
type Variant struct {
	ID        int64   `json:"id"`
	SKU       string  `json:"sku"`
	ProductID int64   `json:"product_id,omitempty"`
	Price     float64 `json:"price,omitempty"`
	TaxRateID int64   `json:"tax_rate_id,omitempty"`
}

// CreateVariantRequest is the payload for POST /variants.
type CreateVariantRequest struct {
	ProductID int64   `json:"product_id"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	TaxRateID int64   `json:"tax_rate_id"`
}

// SalesOrder is the subset of a Katana sales order the sync reads back.
type SalesOrder struct {
	ID      int64 `json:"id"`
	OrderNo Ref   `json:"order_no"`
}

// SalesOrderRow is one line of a sales order.
type SalesOrderRow struct {
	VariantID    int64   `json:"variant_id"`
	Quantity     int64   `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
	TaxRateID    int64   `json:"tax_rate_id"`
	LocationID   int64   `json:"location_id"`
}

// CreateSalesOrderRequest is the payload for POST /sales_orders.
type CreateSalesOrderRequest struct {
	OrderNo          string          `json:"order_no"`
	CustomerID       int64           `json:"customer_id"`
	CustomerRef      string          `json:"customer_ref"`
	OrderCreatedDate string          `json:"order_created_date"`
	DeliveryDate     string          `json:"delivery_date"`
	Currency         string          `json:"currency"`
	LocationID       int64           `json:"location_id"`
	Source           string          `json:"source,omitempty"`
	Rows             []SalesOrderRow `json:"sales_order_rows"`
	AdditionalInfo   string          `json:"additional_info,omitempty"`
}
