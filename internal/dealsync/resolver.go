package dealsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dealsync/dealsync/internal/pipedrive"
)

var (
	hundred = decimal.NewFromInt(100)
)

// ResolveDeal completes the request with data from Pipedrive: line items
// when none were supplied, and the won time (plus title and currency when
// unset) when the caller omitted it.
func (s *Service) ResolveDeal(ctx context.Context, req SyncRequest) (*Deal, error) {
	dealID := strings.TrimSpace(string(req.DealID))
	if dealID == "" {
		return nil, ErrDealIDRequired
	}

	deal := &Deal{
		ID:       dealID,
		Title:    req.DealTitle,
		Currency: req.Currency,
		WonTime:  req.WonTime,
	}

	// The deal record is needed for the won time and, when products come
	// from Pipedrive, for the deal-level discount. Load it at most once.
	var (
		record  *pipedrive.Deal
		fetched bool
	)
	loadRecord := func() (*pipedrive.Deal, error) {
		if fetched {
			return record, nil
		}
		fetched = true
		rec, err := s.crm.GetDeal(ctx, dealID)
		if err != nil {
			var apiErr *pipedrive.APIError
			if !errors.As(err, &apiErr) {
				return nil, fmt.Errorf("fetch deal %s: %w", dealID, err)
			}
			s.logger.Warn("pipedrive deal unavailable", slog.String("deal_id", dealID), slog.Any("error", err))
		}
		record = rec
		return record, nil
	}

	if len(req.Products) == 0 {
		items, err := s.fetchLineItems(ctx, dealID, req.Currency, loadRecord)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, ErrNoDealProducts
		}
		deal.Items = items
	}

	if deal.WonTime == "" {
		rec, err := loadRecord()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			deal.WonTime = rec.WonTime
			if deal.Title == "" {
				deal.Title = rec.Title
			}
			if deal.Currency == "" {
				deal.Currency = rec.Currency
			}
		}
	}
	if strings.TrimSpace(deal.WonTime) == "" {
		return nil, ErrWonTimeRequired
	}
	if _, err := ParseWonTime(deal.WonTime); err != nil {
		return nil, err
	}
	deal.Currency = orDefault(deal.Currency, s.settings.DefaultCurrency)

	if len(req.Products) > 0 {
		deal.Items = make([]LineItem, 0, len(req.Products))
		for _, p := range req.Products {
			deal.Items = append(deal.Items, p.lineItem(deal.Currency, s.settings.DefaultVATRate))
		}
	}

	if req.Customer != nil {
		deal.CustomerName = req.Customer.Name
		deal.CustomerEmail = req.Customer.Email
	}
	if deal.CustomerName == "" {
		deal.CustomerName = deal.Title
	}
	return deal, nil
}

func (s *Service) fetchLineItems(ctx context.Context, dealID, currency string, loadRecord func() (*pipedrive.Deal, error)) ([]LineItem, error) {
	products, err := s.crm.GetDealProducts(ctx, dealID)
	if err != nil {
		var apiErr *pipedrive.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("pipedrive deal products unavailable", slog.String("deal_id", dealID), slog.Any("error", err))
			return nil, nil
		}
		return nil, fmt.Errorf("fetch deal products %s: %w", dealID, err)
	}
	if products == nil || len(products.Items) == 0 {
		return nil, nil
	}

	record, err := loadRecord()
	if err != nil {
		return nil, err
	}
	var dealValue decimal.Decimal
	if record != nil {
		dealValue = record.Value.Decimal
		currency = orDefault(currency, record.Currency)
	}
	currency = orDefault(currency, s.settings.DefaultCurrency)
	dealDiscount := dealLevelDiscount(products.ProductsSumTotal, dealValue)

	items := make([]LineItem, 0, len(products.Items))
	for _, dp := range products.Items {
		if dp.ProductID == 0 {
			continue
		}
		details, err := s.crm.GetProduct(ctx, dp.ProductID)
		if err != nil {
			var apiErr *pipedrive.APIError
			if !errors.As(err, &apiErr) {
				return nil, fmt.Errorf("fetch product %d: %w", dp.ProductID, err)
			}
			s.logger.Warn("pipedrive product unavailable", slog.Int64("product_id", dp.ProductID), slog.Any("error", err))
			continue
		}
		if len(details) == 0 {
			continue
		}

		name := dp.Name
		if name == "" {
			name = details.String("name")
		}
		if name == "" {
			name = "Unknown"
		}

		vat := s.settings.DefaultVATRate
		if tax, ok := details.Decimal("tax"); ok {
			vat = int(tax.IntPart())
		} else if v, ok := details.Decimal("vat"); ok {
			vat = int(v.IntPart())
		}

		quantity := dp.Quantity.IntPart()
		price := dp.ItemPrice.Decimal
		items = append(items, LineItem{
			Name:            name,
			SKU:             productSKU(details, s.settings.SKUFieldKey, name),
			Quantity:        quantity,
			Price:           price,
			VATRate:         vat,
			Currency:        currency,
			DiscountPercent: combineDiscounts(lineDiscount(dp, price, quantity), dealDiscount),
		})
	}
	return items, nil
}

// productSKU reads the SKU custom field, then the product code, then a
// "Name | SKU" suffix.
func productSKU(details pipedrive.Product, fieldKey, name string) string {
	if sku := strings.TrimSpace(details.String(fieldKey)); sku != "" {
		return sku
	}
	if code := strings.TrimSpace(details.String("code")); code != "" {
		return code
	}
	if idx := strings.LastIndex(name, "|"); idx > 0 {
		return strings.TrimSpace(name[idx+1:])
	}
	return ""
}

// dealLevelDiscount derives the percentage removed between the sum of the
// products and the deal value.
func dealLevelDiscount(productsSum, dealValue decimal.Decimal) decimal.Decimal {
	if !productsSum.IsPositive() || !dealValue.IsPositive() || !dealValue.LessThan(productsSum) {
		return decimal.Zero
	}
	return productsSum.Sub(dealValue).Div(productsSum).Mul(hundred).Round(2)
}

func lineDiscount(dp pipedrive.DealProduct, price decimal.Decimal, quantity int64) decimal.Decimal {
	value := dp.Discount.Decimal
	if !value.IsPositive() {
		return decimal.Zero
	}
	pct := value
	if dp.DiscountType == "amount" {
		rowTotal := price.Mul(decimal.NewFromInt(quantity))
		if !rowTotal.IsPositive() {
			return decimal.Zero
		}
		pct = value.Div(rowTotal).Mul(hundred)
	}
	return decimal.Min(pct, hundred)
}

// combineDiscounts applies the deal discount to what remains after the line
// discount, capped at 100.
func combineDiscounts(line, deal decimal.Decimal) decimal.Decimal {
	total := line
	if deal.IsPositive() && line.LessThan(hundred) {
		remaining := decimal.NewFromInt(1).Sub(line.Div(hundred))
		total = line.Add(deal.Mul(remaining))
	}
	return decimal.Min(total.Round(2), hundred)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
