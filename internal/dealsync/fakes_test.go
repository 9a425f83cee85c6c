package dealsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dealsync/dealsync/internal/journal"
	"github.com/dealsync/dealsync/internal/katana"
	"github.com/dealsync/dealsync/internal/pipedrive"
)

var errBoom = errors.New("boom")

type fakeCRM struct {
	deal        *pipedrive.Deal
	dealErr     error
	products    *pipedrive.DealProducts
	productsErr error
	details     map[int64]pipedrive.Product
	detailsErr  error

	dealCalls int
}

func (f *fakeCRM) GetDeal(_ context.Context, _ string) (*pipedrive.Deal, error) {
	f.dealCalls++
	return f.deal, f.dealErr
}

func (f *fakeCRM) GetDealProducts(_ context.Context, _ string) (*pipedrive.DealProducts, error) {
	return f.products, f.productsErr
}

func (f *fakeCRM) GetProduct(_ context.Context, id int64) (pipedrive.Product, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details[id], nil
}

// fakeInventory is an in-memory Katana account.
type fakeInventory struct {
	mu sync.Mutex

	orders    []katana.SalesOrder
	customers []katana.Customer
	products  []katana.Product
	variants  []katana.Variant

	ordersErr         error
	customersErr      error
	createCustomerErr error
	productsErr       error
	createProductErr  error
	variantsErr       error
	createVariantErr  error
	createOrderErr    error

	createdOrders    []katana.CreateSalesOrderRequest
	createdCustomers []katana.CreateCustomerRequest
	createdProducts  []katana.CreateProductRequest
	createdVariants  []katana.CreateVariantRequest
	pages            []katana.Page
	nextID           int64
}

func (f *fakeInventory) id() int64 {
	f.nextID++
	return 1000 + f.nextID
}

func pageOf[T any](items []T, page katana.Page) []T {
	if page.Start >= len(items) {
		return nil
	}
	end := page.Start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[page.Start:end]...)
}

func (f *fakeInventory) ListSalesOrders(_ context.Context, page katana.Page) ([]katana.SalesOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return pageOf(f.orders, page), nil
}

func (f *fakeInventory) CreateSalesOrder(_ context.Context, req katana.CreateSalesOrderRequest) (*katana.SalesOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createOrderErr != nil {
		return nil, f.createOrderErr
	}
	f.createdOrders = append(f.createdOrders, req)
	order := katana.SalesOrder{ID: f.id(), OrderNo: katana.Ref(req.OrderNo)}
	f.orders = append(f.orders, order)
	return &order, nil
}

func (f *fakeInventory) ListCustomers(_ context.Context, page katana.Page) ([]katana.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.customersErr != nil {
		return nil, f.customersErr
	}
	return pageOf(f.customers, page), nil
}

func (f *fakeInventory) CreateCustomer(_ context.Context, req katana.CreateCustomerRequest) (*katana.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCustomerErr != nil {
		return nil, f.createCustomerErr
	}
	f.createdCustomers = append(f.createdCustomers, req)
	c := katana.Customer{ID: f.id(), Name: req.Name, Email: req.Email, Currency: req.Currency}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeInventory) ListProducts(_ context.Context, page katana.Page) ([]katana.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return pageOf(f.products, page), nil
}

func (f *fakeInventory) CreateProduct(_ context.Context, req katana.CreateProductRequest) (*katana.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createProductErr != nil {
		return nil, f.createProductErr
	}
	f.createdProducts = append(f.createdProducts, req)
	p := katana.Product{ID: f.id(), Name: req.Name, Code: req.Code, Unit: req.Unit}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeInventory) ListVariants(_ context.Context, page katana.Page) ([]katana.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.variantsErr != nil {
		return nil, f.variantsErr
	}
	return pageOf(f.variants, page), nil
}

func (f *fakeInventory) CreateVariant(_ context.Context, req katana.CreateVariantRequest) (*katana.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createVariantErr != nil {
		return nil, f.createVariantErr
	}
	f.createdVariants = append(f.createdVariants, req)
	v := katana.Variant{ID: f.id(), SKU: req.SKU, ProductID: req.ProductID, Price: req.Price, TaxRateID: req.TaxRateID}
	f.variants = append(f.variants, v)
	return &v, nil
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
}

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		delete(l.held, key)
		l.released = append(l.released, key)
	}, true, nil
}

type fakeJournal struct {
	entries []journal.Entry
}

func (j *fakeJournal) Record(_ context.Context, entry journal.Entry) error {
	j.entries = append(j.entries, entry)
	return nil
}

type fakeObserver struct {
	outcomes []string
}

func (o *fakeObserver) ObserveSync(outcome string, _ int, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(crm *fakeCRM, inv *fakeInventory, mutate ...func(*ServiceConfig)) *Service {
	settings := DefaultSettings()
	settings.PageSize = 2
	settings.MaxPages = 3
	cfg := ServiceConfig{
		CRM:       crm,
		Inventory: inv,
		Settings:  settings,
		Logger:    discardLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewService(cfg)
}
