package services

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/metrics"
)

const noteSettled = "Balance settled"

// RecordPayment stores a payment against an order. When a completed
// payment clears the balance of a SERVED order, the order is completed in
// the same transaction. Orders in any other status keep their status.
func (s *OrderService) RecordPayment(ctx context.Context, req dto.PaymentRequest) (dto.PaymentResult, error) {
	ctx = logtags.AddTag(ctx, "order", req.OrderID)
	mylog := s.mylog.Action("record_payment")

	amount := req.Amount.Round(MoneyPlaces)
	if amount.Sign() <= 0 {
		err := errors.Wrapf(core.ErrInvalidPaymentAmount, "amount %s", req.Amount.String())
		s.reject(ctx, mylog, "record_payment", err)
		return dto.PaymentResult{}, err
	}
	method := req.Method
	if method == "" {
		method = models.MethodCash
	}
	status := req.Status
	if status == "" {
		status = models.PaymentCompleted
	}
	if !method.Valid() || !status.Valid() {
		err := errors.Wrapf(core.ErrInvalidPaymentMethod, "method %q, status %q", method, status)
		s.reject(ctx, mylog, "record_payment", err)
		return dto.PaymentResult{}, err
	}

	var (
		result dto.PaymentResult
		from   models.OrderStatus
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		order, err := tx.LockOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		from = order.Status

		payment := models.Payment{
			OrderID:       order.ID,
			Amount:        amount,
			Method:        method,
			Status:        status,
			TransactionID: req.TransactionID,
			Notes:         req.Notes,
		}
		if req.ProcessedBy != "" {
			processedBy := req.ProcessedBy
			payment.ProcessedBy = &processedBy
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return errors.Wrap(err, "insert payment")
		}

		payments, err := tx.ListPayments(ctx, order.ID)
		if err != nil {
			return err
		}
		paid := AmountPaid(payments)
		balance := BalanceDue(order.Total, paid)

		autoCompleted := false
		if payment.Status == models.PaymentCompleted && balance.Sign() <= 0 && order.Status == models.StatusServed {
			order, err = s.advance(ctx, tx, order, models.StatusCompleted, req.ProcessedBy, noteSettled)
			if err != nil {
				return err
			}
			autoCompleted = true
		}

		result = dto.PaymentResult{
			Payment:       payment,
			Order:         order,
			AutoCompleted: autoCompleted,
			Settlement: dto.Settlement{
				OrderID:    order.ID,
				Total:      order.Total,
				AmountPaid: paid,
				BalanceDue: balance,
			},
		}
		return nil
	})
	if err != nil {
		s.reject(ctx, mylog, "record_payment", err)
		return dto.PaymentResult{}, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(method), string(status)).Inc()
	mylog.Ctx(ctx).Info("Payment recorded",
		"payment_id", result.Payment.ID,
		"amount", amount.StringFixed(MoneyPlaces),
		"method", method,
		"balance_due", result.Settlement.BalanceDue.StringFixed(MoneyPlaces),
		"auto_completed", result.AutoCompleted)

	if result.AutoCompleted {
		s.publish(ctx, result.Order, from, actorOrDefault(req.ProcessedBy))
	}
	return result, nil
}

// Settlement reports the order's total, what has been paid and what is
// still owed.
func (s *OrderService) Settlement(ctx context.Context, orderID int64) (dto.Settlement, error) {
	var st dto.Settlement
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		order, err := r.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		payments, err := r.ListPayments(ctx, orderID)
		if err != nil {
			return err
		}
		paid := AmountPaid(payments)
		st = dto.Settlement{
			OrderID:    order.ID,
			Total:      order.Total,
			AmountPaid: paid,
			BalanceDue: BalanceDue(order.Total, paid),
		}
		return nil
	})
	if err != nil {
		return dto.Settlement{}, err
	}
	return st, nil
}
