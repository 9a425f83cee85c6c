// Package dealsync turns a won Pipedrive deal into a Katana sales order.
package dealsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dealsync/dealsync/internal/journal"
	"github.com/dealsync/dealsync/internal/katana"
	"github.com/dealsync/dealsync/internal/pipedrive"
	"github.com/dealsync/dealsync/internal/shared"
)

// CRM reads deal data from Pipedrive.
type CRM interface {
	GetDeal(ctx context.Context, dealID string) (*pipedrive.Deal, error)
	GetDealProducts(ctx context.Context, dealID string) (*pipedrive.DealProducts, error)
	GetProduct(ctx context.Context, productID int64) (pipedrive.Product, error)
}

// Inventory reads and writes Katana records.
type Inventory interface {
	ListSalesOrders(ctx context.Context, page katana.Page) ([]katana.SalesOrder, error)
	CreateSalesOrder(ctx context.Context, req katana.CreateSalesOrderRequest) (*katana.SalesOrder, error)
	ListCustomers(ctx context.Context, page katana.Page) ([]katana.Customer, error)
	CreateCustomer(ctx context.Context, req katana.CreateCustomerRequest) (*katana.Customer, error)
	ListProducts(ctx context.Context, page katana.Page) ([]katana.Product, error)
	CreateProduct(ctx context.Context, req katana.CreateProductRequest) (*katana.Product, error)
	ListVariants(ctx context.Context, page katana.Page) ([]katana.Variant, error)
	CreateVariant(ctx context.Context, req katana.CreateVariantRequest) (*katana.Variant, error)
}

// Locker serializes syncs of the same deal across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// Recorder persists sync outcomes.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Observer receives one call per finished sync.
type Observer interface {
	ObserveSync(outcome string, customItems int, elapsed time.Duration)
}

// ServiceConfig groups the dependencies of a Service. Locker, Journal and
// Observer are optional.
type ServiceConfig struct {
	CRM       CRM
	Inventory Inventory
	Settings  Settings
	Logger    *slog.Logger
	Locker    Locker
	Journal   Recorder
	Observer  Observer
}

// Service runs the deal-to-order pipeline.
type Service struct {
	crm       CRM
	inventory Inventory
	settings  Settings
	logger    *slog.Logger
	locker    Locker
	journal   Recorder
	observer  Observer
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		crm:       cfg.CRM,
		inventory: cfg.Inventory,
		settings:  cfg.Settings,
		logger:    logger,
		locker:    cfg.Locker,
		journal:   cfg.Journal,
		observer:  cfg.Observer,
	}
}

// Sync resolves the deal, guards against an existing order, resolves the
// customer and catalog entries and submits the sales order.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (result *Result, err error) {
	start := time.Now()
	runID := uuid.New()
	dealID := string(req.DealID)
	logger := s.logger.With(slog.String("run_id", runID.String()), slog.String("deal_id", dealID))

	defer func() {
		s.finish(ctx, logger, runID, dealID, result, err, time.Since(start))
	}()

	if dealID == "" {
		return nil, ErrDealIDRequired
	}

	if s.locker != nil {
		release, acquired, lockErr := s.locker.Acquire(ctx, shared.DealLockKey(dealID))
		if lockErr != nil {
			return nil, fmt.Errorf("acquire deal lock: %w", lockErr)
		}
		if !acquired {
			return nil, ErrSyncInProgress
		}
		defer release()
	}

	deal, err := s.ResolveDeal(ctx, req)
	if err != nil {
		return nil, err
	}

	lookup := s.FindExistingOrder(ctx, deal.ID)
	switch lookup.Outcome {
	case LookupFound:
		return nil, &DuplicateOrderError{OrderID: lookup.Order.ID, OrderNo: lookup.Order.OrderNo.String()}
	case LookupFailed:
		logger.Warn("existing order lookup failed", slog.Any("error", lookup.Err), slog.Bool("strict", s.settings.StrictDuplicateCheck))
		if s.settings.StrictDuplicateCheck {
			return nil, fmt.Errorf("check existing order: %w", lookup.Err)
		}
	}

	if !hasSellableItems(deal.Items) {
		return nil, ErrNoProducts
	}

	customer, err := s.ResolveCustomer(ctx, deal.CustomerName, deal.CustomerEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCustomerFailed, err)
	}

	assembly := s.AssembleRows(ctx, deal.Items)
	if len(assembly.Rows) == 0 {
		return nil, ErrNoProducts
	}

	order, err := s.BuildOrder(deal, customer.ID, assembly)
	if err != nil {
		return nil, err
	}

	created, err := s.inventory.CreateSalesOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}

	logger.Info("sales order created",
		slog.Int64("order_id", created.ID),
		slog.Int("rows", len(order.Rows)),
		slog.Int("custom_items", len(assembly.CustomItems)),
	)
	return &Result{
		OrderID:          created.ID,
		OrderNo:          created.OrderNo.String(),
		CustomItemsCount: len(assembly.CustomItems),
	}, nil
}

func (s *Service) finish(ctx context.Context, logger *slog.Logger, runID uuid.UUID, dealID string, result *Result, err error, elapsed time.Duration) {
	entry := journal.Entry{
		ID:        runID,
		DealID:    dealID,
		Status:    outcomeOf(err),
		CreatedAt: time.Now().UTC(),
	}
	if result != nil {
		entry.OrderID = result.OrderID
		entry.OrderNo = result.OrderNo
		entry.CustomItems = result.CustomItemsCount
	}
	var dup *DuplicateOrderError
	if errors.As(err, &dup) {
		entry.OrderID = dup.OrderID
		entry.OrderNo = dup.OrderNo
	}
	if err != nil {
		entry.Error = MessageFor(err)
		if StatusFor(err) >= http.StatusInternalServerError {
			logger.Error("deal sync failed", slog.Any("error", err))
		} else {
			logger.Warn("deal sync rejected", slog.Any("error", err))
		}
	}

	if s.observer != nil {
		s.observer.ObserveSync(entry.Status, entry.CustomItems, elapsed)
	}
	if s.journal != nil && dealID != "" {
		if jErr := s.journal.Record(context.WithoutCancel(ctx), entry); jErr != nil {
			logger.Warn("journal record", slog.Any("error", jErr))
		}
	}
}

func outcomeOf(err error) string {
	var dup *DuplicateOrderError
	switch {
	case err == nil:
		return journal.StatusCreated
	case errors.As(err, &dup):
		return journal.StatusDuplicate
	case StatusFor(err) < http.StatusInternalServerError:
		return journal.StatusRejected
	}
	return journal.StatusFailed
}

func hasSellableItems(items []LineItem) bool {
	for _, item := range items {
		if item.Quantity != 0 {
			return true
		}
	}
	return false
}
