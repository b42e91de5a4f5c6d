package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TableStatus string

const (
	TableVacant   TableStatus = "VACANT"
	TableOccupied TableStatus = "OCCUPIED"
	TableReserved TableStatus = "RESERVED"
	TableCleaning TableStatus = "CLEANING"
)

type Table struct {
	ID        int64       `json:"id"`
	Number    string      `json:"number"`
	Capacity  int         `json:"capacity"`
	Status    TableStatus `json:"status"`
	Location  string      `json:"location"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Customer struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	LoyaltyPoints int       `json:"loyalty_points"`
	IsVIP         bool      `json:"is_vip"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type MenuCategory struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// MenuItem carries its category name so projections can route lines to
// kitchen stations without a second lookup.
type MenuItem struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	IsActive     bool            `json:"is_active"`
}
