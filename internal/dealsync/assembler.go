package dealsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dealsync/dealsync/internal/katana"
)

// Assembly holds the order rows built from a deal and the lines that fell
// back to the custom-item variant.
type Assembly struct {
	Rows        []katana.SalesOrderRow
	CustomItems []CustomItem
}

// AssembleRows builds one row per line item with a non-zero quantity.
func (s *Service) AssembleRows(ctx context.Context, items []LineItem) Assembly {
	var out Assembly
	for _, item := range items {
		if item.Quantity == 0 {
			continue
		}
		sku := strings.ToUpper(strings.TrimSpace(item.SKU))
		price := discountedPrice(item.Price, item.DiscountPercent)
		taxRate := s.TaxRateFor(item.VATRate, item.Currency)

		if sku != "" {
			variant, err := s.ResolveVariant(ctx, sku, item.Name, item.Price, item.VATRate)
			if err == nil {
				out.Rows = append(out.Rows, katana.SalesOrderRow{
					VariantID:    variant.ID,
					Quantity:     item.Quantity,
					PricePerUnit: price.InexactFloat64(),
					TaxRateID:    taxRate,
					LocationID:   s.settings.LocationID,
				})
				continue
			}
			s.logger.Warn("variant unresolved, booking custom item",
				slog.String("sku", sku), slog.Any("error", err))
		}

		out.Rows = append(out.Rows, katana.SalesOrderRow{
			VariantID:    s.settings.CustomItemVariantID,
			Quantity:     item.Quantity,
			PricePerUnit: decimal.Max(price, decimal.Zero).InexactFloat64(),
			TaxRateID:    taxRate,
			LocationID:   s.settings.LocationID,
		})
		out.CustomItems = append(out.CustomItems, CustomItem{
			Row:      len(out.Rows),
			Name:     item.Name,
			SKU:      sku,
			Quantity: item.Quantity,
			Price:    price,
		})
	}
	return out
}

// TaxRateFor maps a line to a Katana tax rate: GBP lines and 20% VAT use the
// GBP rate, everything else the EUR rate.
func (s *Service) TaxRateFor(vatRate int, currency string) int64 {
	if strings.EqualFold(strings.TrimSpace(currency), "GBP") || vatRate == 20 {
		return s.settings.TaxRateGBP
	}
	return s.settings.TaxRateEUR
}

// BuildOrder assembles the sales order payload for deal.
func (s *Service) BuildOrder(deal *Deal, customerID int64, assembly Assembly) (katana.CreateSalesOrderRequest, error) {
	created, delivery, err := OrderDates(deal.WonTime, s.settings.LeadTime)
	if err != nil {
		return katana.CreateSalesOrderRequest{}, err
	}
	return katana.CreateSalesOrderRequest{
		OrderNo:          deal.ID,
		CustomerID:       customerID,
		CustomerRef:      deal.Title,
		OrderCreatedDate: created,
		DeliveryDate:     delivery,
		Currency:         deal.Currency,
		LocationID:       s.settings.LocationID,
		Source:           s.settings.Source,
		Rows:             assembly.Rows,
		AdditionalInfo:   buildAdditionalInfo(assembly.CustomItems),
	}, nil
}

func buildAdditionalInfo(items []CustomItem) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "CUSTOM ITEMS (from Pipedrive):")
	for _, item := range items {
		var sku string
		if item.SKU != "" {
			sku = fmt.Sprintf(" (Pipedrive SKU: %s)", item.SKU)
		}
		lines = append(lines, fmt.Sprintf("  - Row %d: %s%s (Qty: %d, Price: %s)",
			item.Row, item.Name, sku, item.Quantity, item.Price.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

func discountedPrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.IsPositive() {
		return price
	}
	if discountPercent.GreaterThanOrEqual(hundred) {
		return decimal.Zero
	}
	return price.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(2)
}
