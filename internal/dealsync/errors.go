package dealsync

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dealsync/dealsync/internal/katana"
)

// Request errors. Their text is returned to the caller verbatim.
var (
	ErrNoData          = errors.New("No data provided")
	ErrDealIDRequired  = errors.New("deal_id required")
	ErrNoDealProducts  = errors.New("No products in deal")
	ErrWonTimeRequired = errors.New("won_time required")
	ErrInvalidWonTime  = errors.New("invalid won_time")
	ErrNoProducts      = errors.New("No products to add")
)

var (
	// ErrCustomerFailed aborts the sync when no customer could be found or created.
	ErrCustomerFailed = errors.New("Failed to create customer")
	// ErrSyncInProgress is returned when another sync holds the deal lock.
	ErrSyncInProgress = errors.New("Sync already in progress")
	// ErrQueueUnavailable is returned by the async endpoint without a queue.
	ErrQueueUnavailable = errors.New("Sync queue not configured")
)

// DuplicateOrderError reports an order that already carries the deal's
// order number.
type DuplicateOrderError struct {
	OrderID int64
	OrderNo string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("Order already exists (id %d, order_no %s)", e.OrderID, e.OrderNo)
}

var badRequest = []error{
	ErrNoData,
	ErrDealIDRequired,
	ErrNoDealProducts,
	ErrWonTimeRequired,
	ErrInvalidWonTime,
	ErrNoProducts,
}

// StatusFor maps a sync error to its HTTP status.
func StatusFor(err error) int {
	var dup *DuplicateOrderError
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.As(err, &dup), errors.Is(err, ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// MessageFor returns the caller-facing error text.
func MessageFor(err error) string {
	var dup *DuplicateOrderError
	if errors.As(err, &dup) {
		return "Order already exists"
	}
	for _, group := range [][]error{badRequest, {ErrCustomerFailed, ErrSyncInProgress, ErrQueueUnavailable}} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	var apiErr *katana.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
