// Package pipedrive reads deals and products from the Pipedrive REST API.
package pipedrive

import (
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

// APIError reports a non-2xx response from Pipedrive.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pipedrive: status %d", e.StatusCode)
	}
	return fmt.Sprintf("pipedrive: status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client. BaseURL overrides the URL derived from
// CompanyDomain. A zero Timeout leaves requests without a deadline beyond the
// caller's context.
type Config struct {
	BaseURL       string
	CompanyDomain string
	APIToken      string
	Timeout       time.Duration
}

// Client is a read-only Pipedrive client.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.pipedrive.com/api/v1", cfg.CompanyDomain)
	}
	return &Client{
		baseURL:    baseURL,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error"`
	Data           json.RawMessage `json:"data"`
	AdditionalData json.RawMessage `json:"additional_data"`
}

// GetDeal loads a deal by id. A nil deal with nil error means Pipedrive
// answered without data.
func (c *Client) GetDeal(ctx context.Context, dealID string) (*Deal, error) {
	env, err := c.get(ctx, "deals/"+url.PathEscape(dealID))
	if err != nil {
		return nil, err
	}
	if isNull(env.Data) {
		return nil, nil
	}
	var deal Deal
	if err := json.Unmarshal(env.Data, &deal); err != nil {
		return nil, fmt.Errorf("pipedrive: decode deal %s: %w", dealID, err)
	}
	return &deal, nil
}

// GetDealProducts loads the product associations of a deal.
func (c *Client) GetDealProducts(ctx context.Context, dealID string) (*DealProducts, error) {
	env, err := c.get(ctx, "deals/"+url.PathEscape(dealID)+"/products")
	if err != nil {
		return nil, err
	}
	out := &DealProducts{}
	if !isNull(env.Data) {
		if err := json.Unmarshal(env.Data, &out.Items); err != nil {
			return nil, fmt.Errorf("pipedrive: decode deal products %s: %w", dealID, err)
		}
	}
	if !isNull(env.AdditionalData) {
		var extra struct {
			ProductsSumTotal Amount `json:"products_sum_total"`
		}
		if err := json.Unmarshal(env.AdditionalData, &extra); err == nil {
			out.ProductsSumTotal = extra.ProductsSumTotal.Decimal
		}
	}
	return out, nil
}

// GetProduct loads the full field set of a product, custom fields included.
func (c *Client) GetProduct(ctx context.Context, productID int64) (Product, error) {
	env, err := c.get(ctx, "products/"+strconv.FormatInt(productID, 10))
	if err != nil {
		return nil, err
	}
	if isNull(env.Data) {
		return nil, nil
	}
	var product Product
	if err := json.Unmarshal(env.Data, &product); err != nil {
		return nil, fmt.Errorf("pipedrive: decode product %d: %w", productID, err)
	}
	return product, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*envelope, error) {
	query := url.Values{}
	query.Set("api_token", c.apiToken)
	target := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

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

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("pipedrive: decode %s: %w", endpoint, decodeErr)
	}
	return &env, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
