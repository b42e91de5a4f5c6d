package memdb

import (
	"context"

	"restaurant-system/internal/order/domain/models"
)

// snapshot reads committed state. The caller holds Store.mu for reading.
type snapshot struct {
	st *state
}

func (r snapshot) GetOrder(_ context.Context, id int64) (models.Order, error) {
	return r.st.order(id)
}

func (r snapshot) GetTable(_ context.Context, id int64) (models.Table, error) {
	return r.st.table(id)
}

func (r snapshot) GetCustomer(_ context.Context, id int64) (models.Customer, error) {
	return r.st.customer(id)
}

func (r snapshot) GetMenuItem(_ context.Context, id int64) (models.MenuItem, error) {
	return r.st.menuItem(id)
}

func (r snapshot) ListItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	items := r.st.itemsOf(orderID)
	sortItems(items)
	return items, nil
}

func (r snapshot) ListPayments(_ context.Context, orderID int64) ([]models.Payment, error) {
	return r.st.paymentsOf(orderID), nil
}

func (r snapshot) ListStatusLog(_ context.Context, orderID int64) ([]models.StatusLog, error) {
	return r.st.logsOf(orderID), nil
}

func (r snapshot) ListOrders(_ context.Context, q models.OrderQuery) ([]models.Order, error) {
	orders := r.st.ordersMatching(q)
	sortOrders(orders, q.SortBy)
	return orders, nil
}

func (r snapshot) CountActiveOrders(_ context.Context, tableID, excludingOrderID int64) (int, error) {
	orders := r.st.ordersMatching(models.OrderQuery{TableID: tableID})
	return countActive(orders, excludingOrderID), nil
}
