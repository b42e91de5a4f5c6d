package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
)

func TestKitchenQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createOrder(t, 0, f.line("Grilled Salmon", 1), f.line("Garlic Bread", 2), f.line("Pasta Carbonara", 1))
	second := f.createOrder(t, 1, f.line("Caesar Salad", 1))
	third := f.createOrder(t, 2, f.line("Garlic Bread", 1))

	f.walk(t, second.Order.ID, models.StatusConfirmed)
	f.walk(t, first.Order.ID, models.StatusConfirmed, models.StatusPreparing)

	pending, err := f.svc.PendingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, third.Order.ID, pending[0].OrderID)

	kitchen, err := f.svc.KitchenQueue(ctx)
	require.NoError(t, err)
	require.Len(t, kitchen, 2)
	// Oldest first, regardless of which moved last.
	require.Equal(t, first.Order.ID, kitchen[0].OrderID)
	require.Equal(t, second.Order.ID, kitchen[1].OrderID)

	tk := kitchen[0]
	require.Equal(t, "T1", tk.TableNumber)
	require.Equal(t, "Ann Lee", tk.CustomerName)
	require.Equal(t, models.StatusPreparing, tk.Status)
	require.Equal(t, 3, tk.TotalItems)
	require.Positive(t, tk.Elapsed)
	require.Equal(t, []dto.Station{
		{Category: "Main Courses", Items: []dto.TicketLine{
			{Name: "Grilled Salmon", Quantity: 1},
			{Name: "Pasta Carbonara", Quantity: 1},
		}},
		{Category: "Appetizers", Items: []dto.TicketLine{
			{Name: "Garlic Bread", Quantity: 2},
		}},
	}, tk.Stations)

	// Second order becomes ready after the first, and leads the ready
	// queue only until the first one catches up.
	f.walk(t, second.Order.ID, models.StatusPreparing, models.StatusReady)
	f.walk(t, first.Order.ID, models.StatusReady)

	ready, err := f.svc.ReadyQueue(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 2)
	require.Equal(t, second.Order.ID, ready[0].OrderID)
	require.Equal(t, first.Order.ID, ready[1].OrderID)

	kitchen, err = f.svc.KitchenQueue(ctx)
	require.NoError(t, err)
	require.Empty(t, kitchen)
}

func TestTicketRetiredMenuItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Caesar Salad", 1), f.line("Garlic Bread", 1))
	f.walk(t, detail.Order.ID, models.StatusConfirmed)
	require.NoError(t, f.store.RetireMenuItem(f.menu["Caesar Salad"].ID))

	kitchen, err := f.svc.KitchenQueue(ctx)
	require.NoError(t, err)
	require.Len(t, kitchen, 1)
	require.Equal(t, dto.UnknownStation, kitchen[0].Stations[0].Category)
	require.Equal(t, "Caesar Salad", kitchen[0].Stations[0].Items[0].Name)
	require.Equal(t, "Appetizers", kitchen[0].Stations[1].Category)

	// The snapshot keeps the price after the catalog entry is gone.
	got, err := f.svc.GetOrder(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.Nil(t, got.Items[0].MenuItemID)
	requireMoney(t, "17.99", got.Order.Total)
}

func TestOrderSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Garlic Bread", 2))
	_, err := f.svc.RecordPayment(ctx, dto.PaymentRequest{OrderID: detail.Order.ID, Amount: money("5")})
	require.NoError(t, err)

	sum, err := f.svc.OrderSummary(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, sum.TotalItems)
	require.True(t, sum.CanBeCancelled)
	require.Equal(t, []models.OrderStatus{models.StatusConfirmed, models.StatusCancelled}, sum.ValidNextStatuses)
	requireMoney(t, "5.00", sum.AmountPaid)
	requireMoney(t, "6.98", sum.BalanceDue)

	f.walk(t, detail.Order.ID, models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusServed)
	sum, err = f.svc.OrderSummary(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.False(t, sum.CanBeCancelled)
	require.Equal(t, []models.OrderStatus{models.StatusCompleted}, sum.ValidNextStatuses)
}

func TestTableStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ts, err := f.svc.TableStatus(ctx, f.tables[2].ID)
	require.NoError(t, err)
	require.Equal(t, models.TableVacant, ts.Table.Status)
	require.Empty(t, ts.ActiveOrders)

	detail := f.createOrder(t, 2, f.line("Garlic Bread", 1))
	ts, err = f.svc.TableStatus(ctx, f.tables[2].ID)
	require.NoError(t, err)
	require.Equal(t, models.TableOccupied, ts.Table.Status)
	require.Len(t, ts.ActiveOrders, 1)
	require.Equal(t, detail.Order.ID, ts.ActiveOrders[0].ID)
}
