package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"restaurant-system/internal/order/domain/models"
)

type tx struct {
	reader
}

func (t *tx) LockTable(ctx context.Context, id int64) (models.Table, error) {
	row := t.q.QueryRow(ctx, `SELECT `+tableColumns+` FROM dining_tables WHERE id = $1 FOR UPDATE`, id)
	table, err := scanTable(row)
	if err != nil {
		return models.Table{}, notFound(err, "lock table %d", id)
	}
	return table, nil
}

func (t *tx) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	row := t.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		return models.Order{}, notFound(err, "lock order %d", id)
	}
	return o, nil
}

func (t *tx) SetTableStatus(ctx context.Context, id int64, status models.TableStatus) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE dining_tables
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return errors.Wrapf(err, "update table %d", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "table %d", id)
	}
	return nil
}

func (t *tx) GetOrCreateCustomer(ctx context.Context, c models.Customer) (models.Customer, bool, error) {
	created, err := scanCustomer(t.q.QueryRow(ctx, `
		INSERT INTO customers (
			name,
			email,
			phone,
			address
		)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Address,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Customer{}, false, errors.Wrap(err, "insert customer")
	}

	existing, err := scanCustomer(t.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, c.Email))
	if err != nil {
		return models.Customer{}, false, notFound(err, "customer %q", c.Email)
	}
	return existing, false, nil
}

func (t *tx) InsertOrder(ctx context.Context, o *models.Order) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO orders (
			customer_id,
			table_id,
			status,
			notes,
			subtotal,
			discount,
			tax,
			total,
			created_by,
			served_by
		)
		VALUES (
			$1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10
		)
		RETURNING id, created_at, updated_at
	`,
		o.CustomerID,
		o.TableID,
		string(o.Status),
		o.Notes,
		o.Subtotal.String(),
		o.Discount.String(),
		o.Tax.String(),
		o.Total.String(),
		o.CreatedBy,
		o.ServedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return err
}

func (t *tx) UpdateOrder(ctx context.Context, o *models.Order) error {
	err := t.q.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
			notes = $3,
			subtotal = $4::numeric,
			discount = $5::numeric,
			tax = $6::numeric,
			total = $7::numeric,
			served_by = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		o.ID,
		string(o.Status),
		o.Notes,
		o.Subtotal.String(),
		o.Discount.String(),
		o.Tax.String(),
		o.Total.String(),
		o.ServedBy,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return notFound(err, "order %d", o.ID)
	}
	return nil
}

func (t *tx) InsertItem(ctx context.Context, it *models.OrderItem) error {
	return t.q.QueryRow(ctx, `
		INSERT INTO order_items (
			order_id,
			menu_item_id,
			item_name,
			unit_price,
			qty,
			notes
		)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING id, created_at, updated_at
	`,
		it.OrderID,
		it.MenuItemID,
		it.ItemName,
		it.UnitPrice.String(),
		it.Qty,
		it.Notes,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
}

func (t *tx) UpdateItem(ctx context.Context, it *models.OrderItem) error {
	row := t.q.QueryRow(ctx, `
		UPDATE order_items
		SET qty = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND order_id = $2
		RETURNING `+itemColumns,
		it.ID, it.OrderID, it.Qty, it.Notes,
	)
	updated, err := scanItem(row)
	if err != nil {
		return notFound(err, "line %d of order %d", it.ID, it.OrderID)
	}
	*it = updated
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return errors.Wrapf(err, "delete line %d", itemID)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "line %d of order %d", itemID, orderID)
	}
	return nil
}

func (t *tx) InsertPayment(ctx context.Context, p *models.Payment) error {
	return t.q.QueryRow(ctx, `
		INSERT INTO payments (
			order_id,
			amount,
			method,
			status,
			transaction_id,
			notes,
			processed_by
		)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		p.OrderID,
		p.Amount.String(),
		string(p.Method),
		string(p.Status),
		p.TransactionID,
		p.Notes,
		p.ProcessedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (t *tx) InsertStatusLog(ctx context.Context, l *models.StatusLog) error {
	return t.q.QueryRow(ctx, `
		INSERT INTO order_status_log (
			order_id,
			status,
			changed_by,
			changed_at,
			note
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, l.OrderID, string(l.Status), l.ChangedBy, l.ChangedAt, l.Note).Scan(&l.ID)
}
