package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/read1store/backoffice/internal/models"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/transport"
)

func newOrderService(t *testing.T) (*OrderService, *repo.GormRepo, *fakePublisher) {
	t.Helper()
	r := newTestRepo(t)
	pub := &fakePublisher{}
	return &OrderService{Repo: r, Events: pub, Now: fixedNow}, r, pub
}

func TestCreateOrderNumberSequence(t *testing.T) {
	svc, _, _ := newOrderService(t)
	ctx := context.Background()

	for i, want := range []string{"ORD-20241127-0001", "ORD-20241127-0002", "ORD-20241127-0003"} {
		order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Rudi"})
		require.NoError(t, err)
		require.Equal(t, want, order.OrderNumber, "order %d", i+1)
		require.Equal(t, models.OrderStatusPending, order.Status)
		require.True(t, order.TotalAmount.IsZero())
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newOrderService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderWithItems(t *testing.T) {
	svc, r, pub := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	xt5 := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 10)
	lens := seedProduct(t, r, cat.ID, "Fujinon XF 35mm", "fujinon-xf-35mm", "FC-XF35", "9799000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items: []transport.CreateOrderItem{
			{ProductID: xt5.ID, Quantity: 2},
			{ProductID: lens.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	// subtotal = unit_price * quantity, total = sum of subtotals
	require.True(t, order.Items[0].Subtotal.Equal(decimal.RequireFromString("57998000")))
	require.True(t, order.Items[1].Subtotal.Equal(decimal.RequireFromString("9799000")))
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("67797000")))

	// creating an order never touches stock
	require.Equal(t, 10, stockOf(t, r, xt5.ID))
	require.Equal(t, 5, stockOf(t, r, lens.ID))

	require.Len(t, pub.events, 1)
	require.Equal(t, "order_created", pub.events[0]["type"])
	require.NotEmpty(t, pub.events[0]["event_id"])
}

func TestCreateOrderUnknownProductRollsBack(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)

	n, err := r.CountOrders(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestItemMutationsRecalculateTotal(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Instax Mini 12", "instax-mini-12", "FC-IM12", "1399000", 50)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Sari"})
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, order.ID, prod.ID, 3)
	require.NoError(t, err)
	require.True(t, item.Subtotal.Equal(decimal.RequireFromString("4197000")))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(decimal.RequireFromString("4197000")))

	item, err = svc.UpdateItem(ctx, item.ID, 1)
	require.NoError(t, err)
	require.True(t, item.Subtotal.Equal(decimal.RequireFromString("1399000")))

	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(decimal.RequireFromString("1399000")))

	require.NoError(t, svc.RemoveItem(ctx, item.ID))

	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.IsZero())
}

func TestItemSnapshotSurvivesProductEdit(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-H2S", "fujifilm-x-h2s", "FC-XH2S", "36499000", 8)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Sari",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	prod.Name = "renamed"
	prod.Price = decimal.RequireFromString("1")
	require.NoError(t, r.SaveProduct(ctx, prod))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Fujifilm X-H2S", got.Items[0].ProductName)
	require.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("36499000")))
	require.NotNil(t, got.Items[0].ProductSnapshot)
	require.Equal(t, "FC-XH2S", got.Items[0].ProductSnapshot.SKU)
}

func TestConfirmDecrementsStock(t *testing.T) {
	svc, r, pub := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	order, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)
	require.True(t, order.ConfirmedAt.Equal(testClock))
	require.Equal(t, 3, stockOf(t, r, prod.ID))

	var types []string
	for _, ev := range pub.events {
		types = append(types, ev["type"].(string))
	}
	require.Equal(t, []string{"order_created", "order_confirmed", "product_low_stock"}, types)
}

func TestConfirmRejectsNonPending(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, order.ID)
	require.ErrorIs(t, err, ErrConflict)

	// double confirm must not decrement twice
	require.Equal(t, 4, stockOf(t, r, prod.ID))
}

func TestConfirmProceedsOnInsufficientStock(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 2)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	// the decrement is skipped but the order still confirms
	order, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, order.Status)
	require.Equal(t, 2, stockOf(t, r, prod.ID))
}

func TestCancelConfirmedRestoresStock(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stockOf(t, r, prod.ID))

	order, err = svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, order.Status)
	require.Equal(t, 5, stockOf(t, r, prod.ID))
}

func TestCancelPendingRestoresNothing(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	order, err = svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, order.Status)
	require.Equal(t, 5, stockOf(t, r, prod.ID))
}

func TestCancelRejectsTerminal(t *testing.T) {
	svc, _, _ := newOrderService(t)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Rudi"})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID)
	require.ErrorIs(t, err, ErrConflict)

	order, err = svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Sari"})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestSetStatusJumpFromPendingTakesStock(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	order, err = svc.SetStatus(ctx, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)
	require.Nil(t, order.ConfirmedAt)
	require.Equal(t, 3, stockOf(t, r, prod.ID))
}

func TestSetStatusCompletedToCancelledKeepsStock(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, r, prod.ID))

	// completed orders keep the stock they took
	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, r, prod.ID))
}

func TestSetStatusShippedToCancelledRestoresStock(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, r, prod.ID))

	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 5, stockOf(t, r, prod.ID))
}

func TestSetStatusTimestampsStickOnFirstEntry(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	clock := testClock
	svc := &OrderService{Repo: r, Now: func() time.Time { return clock }}

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Rudi"})
	require.NoError(t, err)

	order, err = svc.SetStatus(ctx, order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	firstConfirm := *order.ConfirmedAt

	clock = clock.Add(2 * time.Hour)

	_, err = svc.SetStatus(ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)

	order, err = svc.SetStatus(ctx, order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	require.True(t, order.ConfirmedAt.Equal(firstConfirm))
}

func TestSetStatusBetweenHoldingStatesNoStockEffect(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "28999000", 5)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, r, prod.ID))

	for _, next := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusCompleted,
	} {
		_, err = svc.SetStatus(ctx, order.ID, next)
		require.NoError(t, err)
		require.Equal(t, 3, stockOf(t, r, prod.ID))
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc, _, _ := newOrderService(t)

	_, err := svc.SetStatus(context.Background(), 1, models.OrderStatus("refunded"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestListOrdersFilter(t *testing.T) {
	svc, _, _ := newOrderService(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: name})
		require.NoError(t, err)
	}

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "d"})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, order.ID)
	require.NoError(t, err)

	total, list, err := svc.ListOrders(ctx, repo.OrderFilter{Status: models.OrderStatusPending, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, list, 3)

	_, _, err = svc.ListOrders(ctx, repo.OrderFilter{Status: models.OrderStatus("bogus"), Limit: 10})
	require.ErrorIs(t, err, ErrValidation)
}

func TestStats(t *testing.T) {
	svc, r, _ := newOrderService(t)
	ctx := context.Background()

	cat := seedCategory(t, r)
	prod := seedProduct(t, r, cat.ID, "Fujifilm X-T5", "fujifilm-x-t5", "FC-XT5", "100", 3)
	seedProduct(t, r, cat.ID, "Sold out", "sold-out", "FC-GONE", "10", 0)

	order, err := svc.CreateOrder(ctx, transport.CreateOrderRequest{
		CustomerName: "Rudi",
		Items:        []transport.CreateOrderItem{{ProductID: prod.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, transport.CreateOrderRequest{CustomerName: "Sari"})
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.True(t, st.TotalRevenue.Equal(decimal.RequireFromString("200")))
	require.EqualValues(t, 2, st.TotalOrders)
	require.EqualValues(t, 1, st.PendingOrders)
	require.EqualValues(t, 1, st.ConfirmedOrders)
	require.EqualValues(t, 2, st.TotalProducts)
	require.EqualValues(t, 1, st.LowStockProducts)
	require.EqualValues(t, 1, st.OutOfStockProducts)
}
