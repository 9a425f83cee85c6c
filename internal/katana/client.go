// Package katana is a minimal client for the Katana MRP REST API.
package katana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Katana API root.
const DefaultBaseURL = "https://api.katanamrp.com/v1"

const maxErrorBody = 500

// APIError reports a response outside 200/201.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client wraps interactions with the Katana API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListSalesOrders returns one page of sales orders.
func (c *Client) ListSalesOrders(ctx context.Context, page Page) ([]SalesOrder, error) {
	var out []SalesOrder
	if err := c.list(ctx, "sales_orders", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSalesOrder submits a new sales order.
func (c *Client) CreateSalesOrder(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrder, error) {
	var out SalesOrder
	if err := c.create(ctx, "sales_orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCustomers returns one page of customers.
func (c *Client) ListCustomers(ctx context.Context, page Page) ([]Customer, error) {
	var out []Customer
	if err := c.list(ctx, "customers", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCustomer creates a customer.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	var out Customer
	if err := c.create(ctx, "customers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, page Page) ([]Product, error) {
	var out []Product
	if err := c.list(ctx, "products", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	var out Product
	if err := c.create(ctx, "products", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVariants returns one page of variants.
func (c *Client) ListVariants(ctx context.Context, page Page) ([]Variant, error) {
	var out []Variant
	if err := c.list(ctx, "variants", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVariant creates a variant under an existing product.
func (c *Client) CreateVariant(ctx context.Context, req CreateVariantRequest) (*Variant, error) {
	var out Variant
	if err := c.create(ctx, "variants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) list(ctx context.Context, endpoint string, page Page, dest any) error {
	query := url.Values{}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Start > 0 {
		query.Set("start", strconv.Itoa(page.Start))
	}
	raw, err := c.do(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return decodeList(raw, dest)
}

func (c *Client) create(ctx context.Context, endpoint string, payload, dest any) error {
	raw, err := c.do(ctx, http.MethodPost, endpoint, nil, payload)
	if err != nil {
		return err
	}
	return decodeEntity(raw, dest)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	target := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("katana: encode %s: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}
	return raw, nil
}

// decodeList reads list payloads shaped as a bare array or wrapped in
// "data" or "results".
func decodeList(raw []byte, dest any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, dest)
	}
	var env struct {
		Data    json.RawMessage `json:"data"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return fmt.Errorf("katana: decode list: %w", err)
	}
	switch {
	case nonEmptyArray(env.Data):
		return json.Unmarshal(env.Data, dest)
	case nonEmptyArray(env.Results):
		return json.Unmarshal(env.Results, dest)
	}
	return nil
}

// decodeEntity reads an object returned bare or wrapped in "data".
func decodeEntity(raw []byte, dest any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("katana: decode entity: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && data[0] == '{' {
		return json.Unmarshal(data, dest)
	}
	return json.Unmarshal(raw, dest)
}

func nonEmptyArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 2 && trimmed[0] == '['
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
