package services

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/models"
)

// ApplyTransition moves an order to the requested status under the order
// row lock. Entering COMPLETED or CANCELLED also releases the table when no
// other active order holds it.
func (s *OrderService) ApplyTransition(ctx context.Context, orderID int64, to models.OrderStatus, actor, note string) (models.Order, error) {
	ctx = logtags.AddTag(ctx, "order", orderID)
	mylog := s.mylog.Action("apply_transition")

	if !to.Valid() {
		err := errors.Wrapf(core.ErrInvalidTransition, "unknown status %q", to)
		s.reject(ctx, mylog, "apply_transition", err)
		return models.Order{}, err
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		locked, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		from = locked.Status
		order, err = s.advance(ctx, tx, locked, to, actor, note)
		return err
	})
	if err != nil {
		s.reject(ctx, mylog, "apply_transition", err)
		return models.Order{}, err
	}

	mylog.Ctx(ctx).Info("Order status changed", "from", from, "to", order.Status, "actor", actor)
	s.publish(ctx, order, from, actor)
	return order, nil
}

// CancelOrder cancels an order that has not been served yet.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64, actor, reason string) (models.Order, error) {
	ctx = logtags.AddTag(ctx, "order", orderID)
	mylog := s.mylog.Action("cancel_order")

	note := "Cancelled"
	if reason != "" {
		note = fmt.Sprintf("Cancelled: %s", reason)
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		locked, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if locked.Status == models.StatusServed || locked.Status == models.StatusCompleted {
			return errors.Wrapf(core.ErrNotCancellable, "order %s is %s", locked.Number(), locked.Status)
		}
		from = locked.Status
		order, err = s.advance(ctx, tx, locked, models.StatusCancelled, actor, note)
		return err
	})
	if err != nil {
		s.reject(ctx, mylog, "cancel_order", err)
		return models.Order{}, err
	}

	mylog.Ctx(ctx).Info("Order cancelled", "from", from, "actor", actor, "reason", reason)
	s.publish(ctx, order, from, actor)
	return order, nil
}

// MarkPreparing is the kitchen's shortcut for CONFIRMED -> PREPARING.
func (s *OrderService) MarkPreparing(ctx context.Context, orderID int64, actor string) (models.Order, error) {
	return s.ApplyTransition(ctx, orderID, models.StatusPreparing, actor, core.NotePreparing)
}

// MarkReady is the kitchen's shortcut for PREPARING -> READY.
func (s *OrderService) MarkReady(ctx context.Context, orderID int64, actor string) (models.Order, error) {
	return s.ApplyTransition(ctx, orderID, models.StatusReady, actor, core.NoteReady)
}

// advance applies one transition to an order the caller already holds
// locked in tx.
func (s *OrderService) advance(ctx context.Context, tx core.ITx, order models.Order, to models.OrderStatus, actor, note string) (models.Order, error) {
	from := order.Status
	if !from.CanTransitionTo(to) {
		err := errors.Wrapf(core.ErrInvalidTransition, "order %s: from %s to %s", order.Number(), from, to)
		return models.Order{}, errors.WithHintf(err, "allowed from %s: %v", from, from.Next())
	}

	now := s.now()
	order.Status = to
	order.AppendNote(now, note)
	if to == models.StatusServed && actor != "" {
		servedBy := actor
		order.ServedBy = &servedBy
	}

	if err := tx.UpdateOrder(ctx, &order); err != nil {
		return models.Order{}, errors.Wrapf(err, "update order %s status", order.Number())
	}
	if err := tx.InsertStatusLog(ctx, &models.StatusLog{
		OrderID:   order.ID,
		Status:    to,
		ChangedBy: actorOrDefault(actor),
		ChangedAt: now,
		Note:      note,
	}); err != nil {
		return models.Order{}, errors.Wrap(err, "insert status log")
	}

	if to.Terminal() {
		if _, err := s.tables.ReleaseIfIdle(ctx, tx, order.TableID, order.ID); err != nil {
			return models.Order{}, err
		}
	}
	return order, nil
}
