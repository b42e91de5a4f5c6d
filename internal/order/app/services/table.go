package services

import (
	"context"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
)

// TableCoordinator owns table occupancy. Both operations run inside the
// caller's transaction and keep the table row locked until it ends.
type TableCoordinator struct {
	mylog logger.Logger
}

func NewTableCoordinator(mylog logger.Logger) *TableCoordinator {
	return &TableCoordinator{mylog: mylog}
}

// ReserveForNewOrder flips a vacant table to occupied. A concurrent
// reservation of the same table blocks on the row lock and then sees
// OCCUPIED.
func (tc *TableCoordinator) ReserveForNewOrder(ctx context.Context, tx core.ITx, tableID int64) (models.Table, error) {
	table, err := tx.LockTable(ctx, tableID)
	if err != nil {
		return models.Table{}, err
	}

	if table.Status != models.TableVacant {
		err := errors.Wrapf(core.ErrTableUnavailable, "table %s is %s", table.Number, table.Status)
		return models.Table{}, errors.WithHint(err, "pick a vacant table or close the orders seated at this one")
	}

	if err := tx.SetTableStatus(ctx, table.ID, models.TableOccupied); err != nil {
		return models.Table{}, errors.Wrapf(err, "occupy table %s", table.Number)
	}
	table.Status = models.TableOccupied
	return table, nil
}

// ReleaseIfIdle sets the table vacant when no active order other than
// excludingOrderID references it. Calling it again is harmless.
func (tc *TableCoordinator) ReleaseIfIdle(ctx context.Context, tx core.ITx, tableID, excludingOrderID int64) (bool, error) {
	table, err := tx.LockTable(ctx, tableID)
	if err != nil {
		return false, err
	}

	active, err := tx.CountActiveOrders(ctx, tableID, excludingOrderID)
	if err != nil {
		return false, errors.Wrapf(err, "count active orders on table %s", table.Number)
	}
	if active > 0 {
		tc.mylog.Action("table_kept").Ctx(ctx).Debug("Table still has active orders", "table", table.Number, "active_orders", active)
		return false, nil
	}
	if table.Status == models.TableVacant {
		return false, nil
	}

	if err := tx.SetTableStatus(ctx, table.ID, models.TableVacant); err != nil {
		return false, errors.Wrapf(err, "vacate table %s", table.Number)
	}
	tc.mylog.Action("table_released").Ctx(ctx).Info("Table set to vacant", "table", table.Number)
	return true, nil
}
