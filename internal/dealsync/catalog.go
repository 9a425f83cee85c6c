package dealsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dealsync/dealsync/internal/katana"
)

var errEmptyCatalogID = errors.New("katana returned record without id")

// ResolveVariant finds the Katana variant carrying sku, creating the parent
// product and the variant when it does not exist. Any failure returns an
// error and the caller books the line as a custom item.
func (s *Service) ResolveVariant(ctx context.Context, sku, name string, price decimal.Decimal, vatRate int) (*katana.Variant, error) {
	want := fold(sku)
	variant, err := scanPages(ctx, s.settings.PageSize, s.settings.MaxPages, s.inventory.ListVariants, func(v katana.Variant) bool {
		return fold(v.SKU) == want
	})
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	if variant != nil {
		return variant, nil
	}

	product, err := s.resolveProduct(ctx, name, sku)
	if err != nil {
		return nil, err
	}

	created, err := s.inventory.CreateVariant(ctx, katana.CreateVariantRequest{
		ProductID: product.ID,
		SKU:       sku,
		Price:     price.InexactFloat64(),
		TaxRateID: s.variantTaxRate(vatRate),
	})
	if err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	if created == nil || created.ID == 0 {
		return nil, fmt.Errorf("create variant: %w", errEmptyCatalogID)
	}
	s.logger.Info("variant created", slog.String("sku", sku), slog.Int64("variant_id", created.ID))
	return created, nil
}

func (s *Service) resolveProduct(ctx context.Context, name, sku string) (*katana.Product, error) {
	if strings.TrimSpace(name) == "" {
		name = "Product " + sku
	}
	want := fold(name)
	found, err := scanPages(ctx, s.settings.PageSize, 1, s.inventory.ListProducts, func(p katana.Product) bool {
		return fold(p.Name) == want
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if found != nil {
		return found, nil
	}

	created, err := s.inventory.CreateProduct(ctx, katana.CreateProductRequest{
		Name: name,
		Code: sku,
		Unit: s.settings.ProductUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if created == nil || created.ID == 0 {
		return nil, fmt.Errorf("create product: %w", errEmptyCatalogID)
	}
	return created, nil
}

// variantTaxRate is the tax bucket stamped on newly created variants.
func (s *Service) variantTaxRate(vatRate int) int64 {
	if vatRate >= 20 {
		return s.settings.TaxRateEUR
	}
	return s.settings.TaxRateGBP
}
