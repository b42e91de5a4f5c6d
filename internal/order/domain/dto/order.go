package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"restaurant-system/internal/order/domain/models"
)

// CustomerRef names an existing customer by id or carries the fields to
// find-or-create one by email.
type CustomerRef struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type CreateOrderRequest struct {
	Customer CustomerRef         `json:"customer"`
	TableID  int64               `json:"table_id"`
	Items    []ItemRequest       `json:"items"`
	Actor    string              `json:"actor"`
	Notes    string              `json:"notes"`
	Discount decimal.NullDecimal `json:"discount"`
	Tax      decimal.NullDecimal `json:"tax"`
}

// ItemRequest is one requested line. ID is set only when editing an
// existing line through SyncItems.
type ItemRequest struct {
	ID         int64  `json:"id,omitempty"`
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

type SyncItemsRequest struct {
	Actor string        `json:"actor"`
	Items []ItemRequest `json:"items"`
}

type TransitionRequest struct {
	Status models.OrderStatus `json:"status"`
	Actor  string             `json:"actor"`
	Note   string             `json:"note"`
}

type CancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

type ChargesRequest struct {
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
}

type PaymentRequest struct {
	OrderID       int64                `json:"-"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        models.PaymentMethod `json:"method"`
	Status        models.PaymentStatus `json:"status,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	ProcessedBy   string               `json:"processed_by,omitempty"`
}

// OrderDetail is an order together with its lines.
type OrderDetail struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

type Settlement struct {
	OrderID    int64           `json:"order_id"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

type OrderSummary struct {
	Order             models.Order         `json:"order"`
	Items             []models.OrderItem   `json:"items"`
	TotalItems        int                  `json:"total_items"`
	CanBeCancelled    bool                 `json:"can_be_cancelled"`
	ValidNextStatuses []models.OrderStatus `json:"valid_next_statuses"`
	AmountPaid        decimal.Decimal      `json:"amount_paid"`
	BalanceDue        decimal.Decimal      `json:"balance_due"`
}

type TableStatus struct {
	Table        models.Table   `json:"table"`
	ActiveOrders []models.Order `json:"active_orders"`
}

// PaymentResult is the recorded payment and the order state it left behind.
type PaymentResult struct {
	Payment       models.Payment `json:"payment"`
	Order         models.Order   `json:"order"`
	AutoCompleted bool           `json:"auto_completed"`
	Settlement    Settlement     `json:"settlement"`
}

// StatusUpdateMessage is published after every committed status change.
type StatusUpdateMessage struct {
	MessageID   string             `json:"message_id"`
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	TableID     int64              `json:"table_id"`
	OldStatus   models.OrderStatus `json:"old_status"`
	NewStatus   models.OrderStatus `json:"new_status"`
	ChangedBy   string             `json:"changed_by"`
	Timestamp   time.Time          `json:"timestamp"`
}
