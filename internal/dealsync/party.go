package dealsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dealsync/dealsync/internal/katana"
)

var errEmptyCustomerID = errors.New("katana returned customer without id")

// ResolveCustomer returns the first customer on the first page whose name
// matches case-insensitively, creating one when none does. A failed lookup
// is treated like a miss.
func (s *Service) ResolveCustomer(ctx context.Context, name, email string) (*katana.Customer, error) {
	want := fold(name)
	found, err := scanPages(ctx, s.settings.PageSize, 1, s.inventory.ListCustomers, func(c katana.Customer) bool {
		return fold(c.Name) == want
	})
	if err != nil {
		s.logger.Warn("customer lookup failed", slog.Any("error", err))
	}
	if found != nil {
		return found, nil
	}

	created, err := s.inventory.CreateCustomer(ctx, katana.CreateCustomerRequest{
		Name:     name,
		Email:    email,
		Currency: s.settings.CustomerCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if created == nil || created.ID == 0 {
		return nil, errEmptyCustomerID
	}
	s.logger.Info("customer created", slog.Int64("customer_id", created.ID))
	return created, nil
}
