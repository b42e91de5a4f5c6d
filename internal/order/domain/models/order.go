package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusServed    OrderStatus = "SERVED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses are the non-terminal statuses; an order in one of them
// keeps its table occupied.
var ActiveStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusServed,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusServed, StatusCancelled},
	StatusServed:    {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the statuses reachable from s in one step.
func (s OrderStatus) Next() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Editable reports whether line items may still change.
func (s OrderStatus) Editable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Cancellable mirrors the cancel shortcut: anything not yet served.
func (s OrderStatus) Cancellable() bool {
	return s != StatusServed && s != StatusCompleted && s != StatusCancelled
}

type Order struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	TableID    int64           `json:"table_id"`
	Status     OrderStatus     `json:"status"`
	Notes      string          `json:"notes"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	CreatedBy  string          `json:"created_by"`
	ServedBy   *string         `json:"served_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Number is the display form used on tickets and receipts.
func (o Order) Number() string {
	return FormatOrderNumber(o.ID)
}

func FormatOrderNumber(id int64) string {
	return fmt.Sprintf("#%06d", id)
}

// AppendNote adds a timestamped line to the order's note log.
func (o *Order) AppendNote(at time.Time, note string) {
	if note == "" {
		return
	}
	if o.Notes == "" {
		o.Notes = note
		return
	}
	o.Notes = fmt.Sprintf("%s\n[%s] %s", o.Notes, at.Format("2006-01-02 15:04"), note)
}

type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	MenuItemID *int64          `json:"menu_item_id,omitempty"`
	ItemName   string          `json:"item_name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Qty        int             `json:"qty"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

type StatusLog struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
	Note      string      `json:"note"`
}

// OrderSort selects the timestamp an order listing is sorted by.
type OrderSort int

const (
	SortByCreated OrderSort = iota
	SortByUpdated
)

// OrderQuery filters order listings. Zero TableID means any table.
type OrderQuery struct {
	Statuses []OrderStatus
	TableID  int64
	SortBy   OrderSort
}

// Matches reports whether o passes the status and table filters.
func (q OrderQuery) Matches(o Order) bool {
	if q.TableID != 0 && o.TableID != q.TableID {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}
