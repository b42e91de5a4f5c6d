package services

import (
	"github.com/shopspring/decimal"

	"restaurant-system/internal/order/domain/models"
)

// MoneyPlaces is the number of fraction digits every stored amount keeps.
const MoneyPlaces = 2

// Recalc recomputes subtotal and total from the order's current lines.
// total is not clamped; only the derived balance is floored at zero.
// Amounts are rounded to MoneyPlaces so repeated calls yield the same
// representation, not just the same value.
func Recalc(o *models.Order, items []models.OrderItem) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	o.Subtotal = subtotal.Round(MoneyPlaces)
	o.Discount = o.Discount.Round(MoneyPlaces)
	o.Tax = o.Tax.Round(MoneyPlaces)
	o.Total = o.Subtotal.Sub(o.Discount).Add(o.Tax).Round(MoneyPlaces)
}

// AmountPaid sums the completed payments.
func AmountPaid(payments []models.Payment) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			paid = paid.Add(p.Amount)
		}
	}
	return paid.Round(MoneyPlaces)
}

// BalanceDue is what is still owed, never below zero.
func BalanceDue(total, paid decimal.Decimal) decimal.Decimal {
	balance := total.Sub(paid)
	if balance.Sign() < 0 {
		return decimal.Zero.Round(MoneyPlaces)
	}
	return balance.Round(MoneyPlaces)
}
