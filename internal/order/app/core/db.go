package core

import (
	"context"

	"restaurant-system/internal/order/domain/models"
)

// IStore is the transactional backing store. Implementations must give
// InTx full atomicity: if fn returns an error nothing it wrote is visible.
type IStore interface {
	// InTx runs fn in one transaction. Row locks taken through ITx are held
	// until fn returns and the transaction commits or rolls back. fn may be
	// invoked more than once when the store retries serialization failures.
	InTx(ctx context.Context, fn func(ctx context.Context, tx ITx) error) error
	// View runs fn against a consistent read snapshot.
	View(ctx context.Context, fn func(ctx context.Context, r IReader) error) error
	IsAlive(ctx context.Context) error
	Close() error
}

// IReader is the read side shared by snapshots and transactions. Missing
// rows are reported as ErrNotFound.
type IReader interface {
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	GetTable(ctx context.Context, id int64) (models.Table, error)
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
	GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	// ListItems returns the order's lines in insertion order.
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error)
	// ListStatusLog returns the order's status history, oldest first.
	ListStatusLog(ctx context.Context, orderID int64) ([]models.StatusLog, error)
	// ListOrders returns matching orders ascending by the requested
	// timestamp, ties broken by id.
	ListOrders(ctx context.Context, q models.OrderQuery) ([]models.Order, error)
	// CountActiveOrders counts non-terminal orders on the table, leaving
	// out excludingOrderID.
	CountActiveOrders(ctx context.Context, tableID, excludingOrderID int64) (int, error)
}

// ITx adds locking reads and writes to IReader.
type ITx interface {
	IReader

	// LockTable reads the table row and holds it exclusively until the
	// transaction ends. A lock wait that gives up returns ErrLockWait.
	LockTable(ctx context.Context, id int64) (models.Table, error)
	// LockOrder reads the order row and holds it exclusively.
	LockOrder(ctx context.Context, id int64) (models.Order, error)
	SetTableStatus(ctx context.Context, id int64, status models.TableStatus) error

	// GetOrCreateCustomer looks the customer up by email and inserts it
	// when absent. The bool reports whether a row was created.
	GetOrCreateCustomer(ctx context.Context, c models.Customer) (models.Customer, bool, error)

	// InsertOrder assigns ID and timestamps on o.
	InsertOrder(ctx context.Context, o *models.Order) error
	// UpdateOrder persists status, notes, served_by and the money fields,
	// and refreshes o.UpdatedAt.
	UpdateOrder(ctx context.Context, o *models.Order) error

	InsertItem(ctx context.Context, it *models.OrderItem) error
	// UpdateItem persists qty and notes only; the name/price snapshot is
	// never rewritten.
	UpdateItem(ctx context.Context, it *models.OrderItem) error
	DeleteItem(ctx context.Context, orderID, itemID int64) error

	InsertPayment(ctx context.Context, p *models.Payment) error
	InsertStatusLog(ctx context.Context, l *models.StatusLog) error
}
