package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"restaurant-system/internal/order/adapter/memdb"
	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
)

// fakeClock moves forward one second on every read so that timestamps are
// strictly ordered.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []dto.StatusUpdateMessage
	err  error
}

func (p *recordingPublisher) PushMessage(_ context.Context, msg dto.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) messages() []dto.StatusUpdateMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.StatusUpdateMessage(nil), p.msgs...)
}

type fixture struct {
	store  *memdb.Store
	svc    *OrderService
	pub    *recordingPublisher
	tables []models.Table
	menu   map[string]models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)}
	store := memdb.New(logger.Nop(), memdb.WithClock(clock.Now), memdb.WithLockTimeout(2*time.Second))
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store: store,
		pub:   &recordingPublisher{},
		menu:  map[string]models.MenuItem{},
	}
	for i := 1; i <= 3; i++ {
		f.tables = append(f.tables, store.SeedTable(fmt.Sprintf("T%d", i), 4, "Main hall"))
	}

	starters := store.SeedCategory("Appetizers")
	mains := store.SeedCategory("Main Courses")
	salads := store.SeedCategory("Salads")
	f.addMenuItem(t, starters.ID, "Garlic Bread", "5.99")
	f.addMenuItem(t, mains.ID, "Grilled Salmon", "24.99")
	f.addMenuItem(t, mains.ID, "Pasta Carbonara", "18.99")
	f.addMenuItem(t, salads.ID, "Caesar Salad", "12.00")

	f.svc = NewOrderService(store, f.pub, logger.Nop(), WithClock(clock.Now))
	return f
}

func (f *fixture) addMenuItem(t *testing.T, categoryID int64, name, price string) {
	t.Helper()
	mi, err := f.store.SeedMenuItem(categoryID, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	f.menu[name] = mi
}

func (f *fixture) line(name string, qty int) dto.ItemRequest {
	return dto.ItemRequest{MenuItemID: f.menu[name].ID, Quantity: qty}
}

func (f *fixture) createRequest(table int, lines ...dto.ItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Customer: dto.CustomerRef{Name: "Ann Lee", Email: "ann@example.com"},
		TableID:  f.tables[table].ID,
		Items:    lines,
		Actor:    "waiter-1",
	}
}

func (f *fixture) createOrder(t *testing.T, table int, lines ...dto.ItemRequest) dto.OrderDetail {
	t.Helper()
	detail, err := f.svc.CreateOrder(context.Background(), f.createRequest(table, lines...))
	require.NoError(t, err)
	return detail
}

// walk drives an order through each status in turn.
func (f *fixture) walk(t *testing.T, orderID int64, statuses ...models.OrderStatus) models.Order {
	t.Helper()
	var (
		o   models.Order
		err error
	)
	for _, s := range statuses {
		o, err = f.svc.ApplyTransition(context.Background(), orderID, s, "staff-1", "")
		require.NoError(t, err, "to %s", s)
	}
	return o
}

func (f *fixture) table(t *testing.T, idx int) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, r core.IReader) error {
		var err error
		table, err = r.GetTable(ctx, f.tables[idx].ID)
		return err
	}))
	return table
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, money(want).Equal(got), "want %s, got %s", want, got.String())
}
