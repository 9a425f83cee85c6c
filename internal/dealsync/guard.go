package dealsync

import (
	"context"
	"strings"

	"github.com/dealsync/dealsync/internal/katana"
)

// LookupOutcome classifies an existing-order lookup.
type LookupOutcome int

const (
	LookupNotFound LookupOutcome = iota
	LookupFound
	LookupFailed
)

func (o LookupOutcome) String() string {
	switch o {
	case LookupFound:
		return "found"
	case LookupFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// OrderLookup is the result of FindExistingOrder. Order is set only when
// Outcome is LookupFound, Err only when it is LookupFailed.
type OrderLookup struct {
	Outcome LookupOutcome
	Order   *katana.SalesOrder
	Err     error
}

// FindExistingOrder scans Katana sales orders for one whose order number
// equals orderNo after trimming both sides.
func (s *Service) FindExistingOrder(ctx context.Context, orderNo string) OrderLookup {
	want := strings.TrimSpace(orderNo)
	found, err := scanPages(ctx, s.settings.PageSize, s.settings.MaxPages, s.inventory.ListSalesOrders, func(o katana.SalesOrder) bool {
		return o.OrderNo.String() == want
	})
	switch {
	case err != nil:
		return OrderLookup{Outcome: LookupFailed, Err: err}
	case found != nil:
		return OrderLookup{Outcome: LookupFound, Order: found}
	}
	return OrderLookup{Outcome: LookupNotFound}
}

// scanPages walks a Katana list endpoint until match succeeds, a short page
// ends the listing or maxPages pages were read.
func scanPages[T any](ctx context.Context, pageSize, maxPages int, list func(context.Context, katana.Page) ([]T, error), match func(T) bool) (*T, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := list(ctx, katana.Page{Start: page * pageSize, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		for i := range items {
			if match(items[i]) {
				return &items[i], nil
			}
		}
		if len(items) < pageSize {
			break
		}
	}
	return nil, nil
}
