package dealsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsync/dealsync/internal/katana"
)

func TestFindExistingOrder(t *testing.T) {
	inv := &fakeInventory{orders: []katana.SalesOrder{
		{ID: 1, OrderNo: "40"},
		{ID: 2, OrderNo: "41"},
		{ID: 3, OrderNo: "39"},
		{ID: 4, OrderNo: " 42 "},
	}}
	svc := newTestService(&fakeCRM{}, inv)

	lookup := svc.FindExistingOrder(context.Background(), "42")
	require.Equal(t, LookupFound, lookup.Outcome)
	assert.Equal(t, int64(4), lookup.Order.ID)
	assert.Equal(t, []katana.Page{{Start: 0, Limit: 2}, {Start: 2, Limit: 2}}, inv.pages)

	lookup = svc.FindExistingOrder(context.Background(), "43")
	assert.Equal(t, LookupNotFound, lookup.Outcome)
	assert.Nil(t, lookup.Order)
}

func TestFindExistingOrderStopsAtMaxPages(t *testing.T) {
	orders := make([]katana.SalesOrder, 0, 10)
	for i := 0; i < 10; i++ {
		orders = append(orders, katana.SalesOrder{ID: int64(i), OrderNo: katana.Ref("x")})
	}
	orders[9].OrderNo = "42"
	inv := &fakeInventory{orders: orders}
	svc := newTestService(&fakeCRM{}, inv)

	lookup := svc.FindExistingOrder(context.Background(), "42")
	assert.Equal(t, LookupNotFound, lookup.Outcome)
	assert.Len(t, inv.pages, 3)
}

func TestFindExistingOrderReportsFailure(t *testing.T) {
	svc := newTestService(&fakeCRM{}, &fakeInventory{ordersErr: errBoom})

	lookup := svc.FindExistingOrder(context.Background(), "42")
	assert.Equal(t, LookupFailed, lookup.Outcome)
	assert.ErrorIs(t, lookup.Err, errBoom)
	assert.Equal(t, "failed", lookup.Outcome.String())
}
