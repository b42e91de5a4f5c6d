package memdb

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/models"
)

// tx reads through its own staged writes to committed state. Committed
// state is read under Store.mu at each call, so a row read right after its
// lock was taken reflects every transaction that held the lock before.
type tx struct {
	s    *Store
	held []string

	orders    map[int64]models.Order
	tables    map[int64]models.Table
	customers map[int64]models.Customer
	items     map[int64]models.OrderItem
	deleted   map[int64]bool
	payments  []models.Payment
	logs      []models.StatusLog
}

func newTx(s *Store) *tx {
	return &tx{
		s:         s,
		orders:    map[int64]models.Order{},
		tables:    map[int64]models.Table{},
		customers: map[int64]models.Customer{},
		items:     map[int64]models.OrderItem{},
		deleted:   map[int64]bool{},
	}
}

func (t *tx) lock(ctx context.Context, key string) error {
	for _, k := range t.held {
		if k == key {
			return nil
		}
	}
	if err := t.s.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) releaseLocks() {
	for _, k := range t.held {
		t.s.locks.release(k)
	}
	t.held = nil
}

// apply writes the overlay into st. The caller holds Store.mu.
func (t *tx) apply(st *state) {
	for id, o := range t.orders {
		st.orders[id] = o
	}
	for id, tb := range t.tables {
		st.tables[id] = tb
	}
	for id, c := range t.customers {
		st.customers[id] = c
		st.emails[c.Email] = id
	}
	for id := range t.deleted {
		delete(st.items, id)
	}
	for id, it := range t.items {
		st.items[id] = it
	}
	for _, p := range t.payments {
		st.payments[p.ID] = p
	}
	for _, l := range t.logs {
		st.logs[l.ID] = l
	}
}

func (t *tx) committed(fn func(st *state)) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	fn(&t.s.st)
}

func (t *tx) GetOrder(_ context.Context, id int64) (o models.Order, err error) {
	if o, ok := t.orders[id]; ok {
		return o, nil
	}
	t.committed(func(st *state) { o, err = st.order(id) })
	return o, err
}

func (t *tx) GetTable(_ context.Context, id int64) (tb models.Table, err error) {
	if tb, ok := t.tables[id]; ok {
		return tb, nil
	}
	t.committed(func(st *state) { tb, err = st.table(id) })
	return tb, err
}

func (t *tx) GetCustomer(_ context.Context, id int64) (c models.Customer, err error) {
	if c, ok := t.customers[id]; ok {
		return c, nil
	}
	t.committed(func(st *state) { c, err = st.customer(id) })
	return c, err
}

func (t *tx) GetMenuItem(_ context.Context, id int64) (mi models.MenuItem, err error) {
	t.committed(func(st *state) { mi, err = st.menuItem(id) })
	return mi, err
}

func (t *tx) ListItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	var base []models.OrderItem
	t.committed(func(st *state) { base = st.itemsOf(orderID) })

	items := make([]models.OrderItem, 0, len(base)+len(t.items))
	for _, it := range base {
		if t.deleted[it.ID] {
			continue
		}
		if _, staged := t.items[it.ID]; staged {
			continue
		}
		items = append(items, it)
	}
	for _, it := range t.items {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sortItems(items)
	return items, nil
}

func (t *tx) ListPayments(_ context.Context, orderID int64) ([]models.Payment, error) {
	var payments []models.Payment
	t.committed(func(st *state) { payments = st.paymentsOf(orderID) })
	for _, p := range t.payments {
		if p.OrderID == orderID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (t *tx) ListStatusLog(_ context.Context, orderID int64) ([]models.StatusLog, error) {
	var logs []models.StatusLog
	t.committed(func(st *state) { logs = st.logsOf(orderID) })
	for _, l := range t.logs {
		if l.OrderID == orderID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (t *tx) ListOrders(_ context.Context, q models.OrderQuery) ([]models.Order, error) {
	var base []models.Order
	t.committed(func(st *state) { base = st.ordersMatching(q) })

	orders := make([]models.Order, 0, len(base)+len(t.orders))
	for _, o := range base {
		if _, staged := t.orders[o.ID]; !staged {
			orders = append(orders, o)
		}
	}
	for _, o := range t.orders {
		if q.Matches(o) {
			orders = append(orders, o)
		}
	}
	sortOrders(orders, q.SortBy)
	return orders, nil
}

func (t *tx) CountActiveOrders(ctx context.Context, tableID, excludingOrderID int64) (int, error) {
	orders, err := t.ListOrders(ctx, models.OrderQuery{TableID: tableID})
	if err != nil {
		return 0, err
	}
	return countActive(orders, excludingOrderID), nil
}

func (t *tx) LockTable(ctx context.Context, id int64) (models.Table, error) {
	if err := t.lock(ctx, fmt.Sprintf("table:%d", id)); err != nil {
		return models.Table{}, err
	}
	return t.GetTable(ctx, id)
}

func (t *tx) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	if err := t.lock(ctx, fmt.Sprintf("order:%d", id)); err != nil {
		return models.Order{}, err
	}
	return t.GetOrder(ctx, id)
}

func (t *tx) SetTableStatus(ctx context.Context, id int64, status models.TableStatus) error {
	tb, err := t.GetTable(ctx, id)
	if err != nil {
		return err
	}
	tb.Status = status
	tb.UpdatedAt = t.s.now()
	t.tables[id] = tb
	return nil
}

func (t *tx) GetOrCreateCustomer(ctx context.Context, c models.Customer) (models.Customer, bool, error) {
	if err := t.lock(ctx, "customer:"+c.Email); err != nil {
		return models.Customer{}, false, err
	}

	for _, staged := range t.customers {
		if staged.Email == c.Email {
			return staged, false, nil
		}
	}
	var (
		existing models.Customer
		found    bool
	)
	t.committed(func(st *state) {
		if id, ok := st.emails[c.Email]; ok {
			existing, found = st.customers[id], true
		}
	})
	if found {
		return existing, false, nil
	}

	now := t.s.now()
	c.ID = t.s.nextID()
	c.CreatedAt = now
	c.UpdatedAt = now
	t.customers[c.ID] = c
	return c, true, nil
}

func (t *tx) InsertOrder(_ context.Context, o *models.Order) error {
	now := t.s.now()
	o.ID = t.s.nextID()
	o.CreatedAt = now
	o.UpdatedAt = now
	t.orders[o.ID] = *o
	return nil
}

func (t *tx) UpdateOrder(ctx context.Context, o *models.Order) error {
	if _, err := t.GetOrder(ctx, o.ID); err != nil {
		return err
	}
	o.UpdatedAt = t.s.now()
	t.orders[o.ID] = *o
	return nil
}

func (t *tx) InsertItem(_ context.Context, it *models.OrderItem) error {
	now := t.s.now()
	it.ID = t.s.nextID()
	it.CreatedAt = now
	it.UpdatedAt = now
	t.items[it.ID] = *it
	return nil
}

func (t *tx) item(orderID, itemID int64) (models.OrderItem, error) {
	if !t.deleted[itemID] {
		if it, ok := t.items[itemID]; ok && it.OrderID == orderID {
			return it, nil
		}
		var (
			it models.OrderItem
			ok bool
		)
		t.committed(func(st *state) { it, ok = st.items[itemID] })
		if ok && it.OrderID == orderID {
			return it, nil
		}
	}
	return models.OrderItem{}, errors.Wrapf(core.ErrNotFound, "line %d of order %d", itemID, orderID)
}

func (t *tx) UpdateItem(_ context.Context, it *models.OrderItem) error {
	cur, err := t.item(it.OrderID, it.ID)
	if err != nil {
		return err
	}
	cur.Qty = it.Qty
	cur.Notes = it.Notes
	cur.UpdatedAt = t.s.now()
	t.items[cur.ID] = cur
	*it = cur
	return nil
}

func (t *tx) DeleteItem(_ context.Context, orderID, itemID int64) error {
	if _, err := t.item(orderID, itemID); err != nil {
		return err
	}
	delete(t.items, itemID)
	t.deleted[itemID] = true
	return nil
}

func (t *tx) InsertPayment(_ context.Context, p *models.Payment) error {
	now := t.s.now()
	p.ID = t.s.nextID()
	p.CreatedAt = now
	p.UpdatedAt = now
	t.payments = append(t.payments, *p)
	return nil
}

func (t *tx) InsertStatusLog(_ context.Context, l *models.StatusLog) error {
	l.ID = t.s.nextID()
	if l.ChangedAt.IsZero() {
		l.ChangedAt = t.s.now()
	}
	t.logs = append(t.logs, *l)
	return nil
}
