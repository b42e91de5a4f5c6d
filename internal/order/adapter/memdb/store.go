// Package memdb is an in-process implementation of core.IStore. It keeps
// the same row-lock and rollback guarantees as the Postgres store and backs
// the tests and the --store=memory mode.
package memdb

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
)

const DefaultLockTimeout = 3 * time.Second

type state struct {
	tables     map[int64]models.Table
	customers  map[int64]models.Customer
	emails     map[string]int64
	categories map[int64]models.MenuCategory
	menu       map[int64]models.MenuItem
	orders     map[int64]models.Order
	items      map[int64]models.OrderItem
	payments   map[int64]models.Payment
	logs       map[int64]models.StatusLog
}

type Store struct {
	mu    sync.RWMutex
	st    state
	locks *rowLocks
	seq   atomic.Int64
	now   func() time.Time

	closed atomic.Bool
	mylog  logger.Logger
}

type Option func(*Store)

func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.locks.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(mylog logger.Logger, opts ...Option) *Store {
	s := &Store{
		st: state{
			tables:     map[int64]models.Table{},
			customers:  map[int64]models.Customer{},
			emails:     map[string]int64{},
			categories: map[int64]models.MenuCategory{},
			menu:       map[int64]models.MenuItem{},
			orders:     map[int64]models.Order{},
			items:      map[int64]models.OrderItem{},
			payments:   map[int64]models.Payment{},
			logs:       map[int64]models.StatusLog{},
		},
		locks: newRowLocks(DefaultLockTimeout),
		now:   time.Now,
		mylog: mylog,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx stages every write in a private overlay and applies it only when fn
// succeeds. Row locks are released after the overlay is applied.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx core.ITx) error) error {
	if s.closed.Load() {
		return errors.Wrap(core.ErrDBConn, "memory store is closed")
	}

	t := newTx(s)
	defer t.releaseLocks()

	if err := fn(ctx, t); err != nil {
		s.mylog.Action("tx_rollback").Ctx(ctx).Debug("Transaction rolled back", "reason", err.Error())
		return err
	}

	s.mu.Lock()
	t.apply(&s.st)
	s.mu.Unlock()
	return nil
}

// View holds the read lock for the whole of fn, so fn sees committed data
// only and nothing commits underneath it.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r core.IReader) error) error {
	if s.closed.Load() {
		return errors.Wrap(core.ErrDBConn, "memory store is closed")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, snapshot{st: &s.st})
}

func (s *Store) IsAlive(context.Context) error {
	if s.closed.Load() {
		return errors.Wrap(core.ErrDBConn, "memory store is closed")
	}
	return nil
}

func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) nextID() int64 {
	return s.seq.Add(1)
}

// SeedTable adds a vacant table.
func (s *Store) SeedTable(number string, capacity int, location string) models.Table {
	now := s.now()
	t := models.Table{
		ID:        s.nextID(),
		Number:    number,
		Capacity:  capacity,
		Status:    models.TableVacant,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.st.tables[t.ID] = t
	s.mu.Unlock()
	return t
}

func (s *Store) SeedCategory(name string) models.MenuCategory {
	c := models.MenuCategory{ID: s.nextID(), Name: name, IsActive: true}

	s.mu.Lock()
	s.st.categories[c.ID] = c
	s.mu.Unlock()
	return c
}

func (s *Store) SeedMenuItem(categoryID int64, name string, price decimal.Decimal) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.st.categories[categoryID]
	if !ok {
		return models.MenuItem{}, errors.Wrapf(core.ErrNotFound, "menu category %d", categoryID)
	}
	mi := models.MenuItem{
		ID:           s.nextID(),
		CategoryID:   c.ID,
		CategoryName: c.Name,
		Name:         name,
		Price:        price,
		IsActive:     true,
	}
	s.st.menu[mi.ID] = mi
	return mi, nil
}

// SetMenuItemActive toggles whether new orders may reference the item.
func (s *Store) SetMenuItemActive(id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mi, ok := s.st.menu[id]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "menu item %d", id)
	}
	mi.IsActive = active
	s.st.menu[id] = mi
	return nil
}

// RetireMenuItem removes the item from the catalog. Existing order lines
// keep their name and price snapshot but lose the reference.
func (s *Store) RetireMenuItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.menu[id]; !ok {
		return errors.Wrapf(core.ErrNotFound, "menu item %d", id)
	}
	delete(s.st.menu, id)
	for itemID, it := range s.st.items {
		if it.MenuItemID != nil && *it.MenuItemID == id {
			it.MenuItemID = nil
			s.st.items[itemID] = it
		}
	}
	return nil
}

func (st *state) order(id int64) (models.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return models.Order{}, errors.Wrapf(core.ErrNotFound, "order %d", id)
	}
	return o, nil
}

func (st *state) table(id int64) (models.Table, error) {
	t, ok := st.tables[id]
	if !ok {
		return models.Table{}, errors.Wrapf(core.ErrNotFound, "table %d", id)
	}
	return t, nil
}

func (st *state) customer(id int64) (models.Customer, error) {
	c, ok := st.customers[id]
	if !ok {
		return models.Customer{}, errors.Wrapf(core.ErrNotFound, "customer %d", id)
	}
	return c, nil
}

func (st *state) menuItem(id int64) (models.MenuItem, error) {
	mi, ok := st.menu[id]
	if !ok {
		return models.MenuItem{}, errors.Wrapf(core.ErrNotFound, "menu item %d", id)
	}
	return mi, nil
}

func (st *state) itemsOf(orderID int64) []models.OrderItem {
	var out []models.OrderItem
	for _, it := range st.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

func (st *state) paymentsOf(orderID int64) []models.Payment {
	var out []models.Payment
	for _, p := range st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) logsOf(orderID int64) []models.StatusLog {
	var out []models.StatusLog
	for _, l := range st.logs {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) ordersMatching(q models.OrderQuery) []models.Order {
	var out []models.Order
	for _, o := range st.orders {
		if q.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

func sortItems(items []models.OrderItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

func sortOrders(orders []models.Order, by models.OrderSort) {
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i].CreatedAt, orders[j].CreatedAt
		if by == models.SortByUpdated {
			a, b = orders[i].UpdatedAt, orders[j].UpdatedAt
		}
		if !a.Equal(b) {
			return a.Before(b)
		}
		return orders[i].ID < orders[j].ID
	})
}

func countActive(orders []models.Order, excludingOrderID int64) int {
	n := 0
	for _, o := range orders {
		if o.ID != excludingOrderID && !o.Status.Terminal() {
			n++
		}
	}
	return n
}
