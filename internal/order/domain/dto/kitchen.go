package dto

import (
	"time"

	"restaurant-system/internal/order/domain/models"
)

// UnknownStation collects lines whose catalog item has been retired.
const UnknownStation = "Unknown"

type KitchenTicket struct {
	OrderID      int64              `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	TableNumber  string             `json:"table_number"`
	CustomerName string             `json:"customer_name"`
	Status       models.OrderStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Elapsed      time.Duration      `json:"elapsed_ns"`
	Stations     []Station          `json:"stations"`
	TotalItems   int                `json:"total_items"`
	Notes        string             `json:"notes"`
}

// Station is one catalog category's share of a ticket.
type Station struct {
	Category string       `json:"category"`
	Items    []TicketLine `json:"items"`
}

type TicketLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// ActorRequest names the staff member behind a kitchen shortcut.
type ActorRequest struct {
	Actor string `json:"actor"`
}
