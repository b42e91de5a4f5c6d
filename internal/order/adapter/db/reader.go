package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-system/internal/order/domain/models"
)

// NUMERIC columns are read as text and parsed, so no precision is lost
// on the way to decimal.Decimal.
const (
	orderColumns = `id, customer_id, table_id, status, notes,
		subtotal::text, discount::text, tax::text, total::text,
		created_by, served_by, created_at, updated_at`
	itemColumns = `id, order_id, menu_item_id, item_name, unit_price::text,
		qty, notes, created_at, updated_at`
	tableColumns    = `id, number, capacity, status, location, created_at, updated_at`
	customerColumns = `id, name, email, phone, address, loyalty_points, is_vip,
		notes, created_at, updated_at`
	paymentColumns = `id, order_id, amount::text, method, status, transaction_id,
		notes, processed_by, created_at, updated_at`
)

type reader struct {
	q pgx.Tx
}

type scanner interface {
	Scan(dest ...any) error
}

func parseDecimals(dst []*decimal.Decimal, src []string) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return errors.Wrapf(err, "parse numeric %q", s)
		}
		*dst[i] = d
	}
	return nil
}

func scanOrder(row scanner) (models.Order, error) {
	var (
		o     models.Order
		money [4]string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.TableID, &o.Status, &o.Notes,
		&money[0], &money[1], &money[2], &money[3],
		&o.CreatedBy, &o.ServedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}
	err = parseDecimals([]*decimal.Decimal{&o.Subtotal, &o.Discount, &o.Tax, &o.Total}, money[:])
	return o, err
}

func scanItem(row scanner) (models.OrderItem, error) {
	var (
		it    models.OrderItem
		price string
	)
	err := row.Scan(
		&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &price,
		&it.Qty, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return models.OrderItem{}, err
	}
	err = parseDecimals([]*decimal.Decimal{&it.UnitPrice}, []string{price})
	return it, err
}

func scanTable(row scanner) (models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.Location, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanCustomer(row scanner) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.LoyaltyPoints,
		&c.IsVIP, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func scanPayment(row scanner) (models.Payment, error) {
	var (
		p      models.Payment
		amount string
	)
	err := row.Scan(
		&p.ID, &p.OrderID, &amount, &p.Method, &p.Status, &p.TransactionID,
		&p.Notes, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Payment{}, err
	}
	err = parseDecimals([]*decimal.Decimal{&p.Amount}, []string{amount})
	return p, err
}

func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r reader) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return models.Order{}, notFound(err, "order %d", id)
	}
	return o, nil
}

func (r reader) GetTable(ctx context.Context, id int64) (models.Table, error) {
	t, err := scanTable(r.q.QueryRow(ctx, `SELECT `+tableColumns+` FROM dining_tables WHERE id = $1`, id))
	if err != nil {
		return models.Table{}, notFound(err, "table %d", id)
	}
	return t, nil
}

func (r reader) GetCustomer(ctx context.Context, id int64) (models.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return models.Customer{}, notFound(err, "customer %d", id)
	}
	return c, nil
}

func (r reader) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	var (
		mi    models.MenuItem
		price string
	)
	err := r.q.QueryRow(ctx, `
		SELECT mi.id, mi.category_id, c.name, mi.name, mi.sku, mi.price::text, mi.is_active
		FROM menu_items mi
		JOIN menu_categories c ON c.id = mi.category_id
		WHERE mi.id = $1
	`, id).Scan(&mi.ID, &mi.CategoryID, &mi.CategoryName, &mi.Name, &mi.SKU, &price, &mi.IsActive)
	if err != nil {
		return models.MenuItem{}, notFound(err, "menu item %d", id)
	}
	if err := parseDecimals([]*decimal.Decimal{&mi.Price}, []string{price}); err != nil {
		return models.MenuItem{}, err
	}
	return mi, nil
}

func (r reader) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of order %d", orderID)
	}
	return collect(rows, scanItem)
}

func (r reader) ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list payments of order %d", orderID)
	}
	return collect(rows, scanPayment)
}

func (r reader) ListStatusLog(ctx context.Context, orderID int64) ([]models.StatusLog, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, status, changed_by, changed_at, note
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list status log of order %d", orderID)
	}
	return collect(rows, func(row scanner) (models.StatusLog, error) {
		var l models.StatusLog
		err := row.Scan(&l.ID, &l.OrderID, &l.Status, &l.ChangedBy, &l.ChangedAt, &l.Note)
		return l, err
	})
}

func (r reader) ListOrders(ctx context.Context, q models.OrderQuery) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if q.TableID != 0 {
		args = append(args, q.TableID)
		where = append(where, fmt.Sprintf("table_id = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if q.SortBy == models.SortByUpdated {
		query += ` ORDER BY updated_at, id`
	} else {
		query += ` ORDER BY created_at, id`
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return collect(rows, scanOrder)
}

func (r reader) CountActiveOrders(ctx context.Context, tableID, excludingOrderID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE table_id = $1
			AND id <> $2
			AND status NOT IN ('COMPLETED', 'CANCELLED')
	`, tableID, excludingOrderID).Scan(&n)
	if err != nil {
		return 0, errors.Wrapf(err, "count active orders on table %d", tableID)
	}
	return n, nil
}
