package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/shopspring/decimal"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/metrics"
)

// CreateOrder seats a new order: it reserves the table, resolves the
// customer, snapshots the requested lines and stores the order as PENDING,
// all in one transaction. Any failure leaves the table as it was.
func (s *OrderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (dto.OrderDetail, error) {
	ctx = logtags.AddTag(ctx, "table", req.TableID)
	mylog := s.mylog.Action("create_order")
	actor := actorOrDefault(req.Actor)

	if err := validateLines(req.Items); err != nil {
		s.reject(ctx, mylog, "create_order", err)
		return dto.OrderDetail{}, err
	}
	discount, tax, err := charges(req.Discount.Decimal, req.Tax.Decimal)
	if err != nil {
		s.reject(ctx, mylog, "create_order", err)
		return dto.OrderDetail{}, err
	}

	var detail dto.OrderDetail
	err = s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		table, err := s.tables.ReserveForNewOrder(ctx, tx, req.TableID)
		if err != nil {
			return err
		}

		customer, err := s.resolveCustomer(ctx, tx, req.Customer)
		if err != nil {
			return err
		}

		lines := make([]models.OrderItem, 0, len(req.Items))
		for i, item := range req.Items {
			line, err := snapshotLine(ctx, tx, i, item)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		order := models.Order{
			CustomerID: customer.ID,
			TableID:    table.ID,
			Status:     models.StatusPending,
			Notes:      req.Notes,
			Discount:   discount,
			Tax:        tax,
			CreatedBy:  actor,
		}
		Recalc(&order, lines)
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return errors.Wrap(err, "insert order")
		}

		for i := range lines {
			lines[i].OrderID = order.ID
			if err := tx.InsertItem(ctx, &lines[i]); err != nil {
				return errors.Wrapf(err, "insert item %q", lines[i].ItemName)
			}
		}

		if err := tx.InsertStatusLog(ctx, &models.StatusLog{
			OrderID:   order.ID,
			Status:    models.StatusPending,
			ChangedBy: actor,
			ChangedAt: s.now(),
			Note:      "Order created",
		}); err != nil {
			return errors.Wrap(err, "insert status log")
		}

		detail = dto.OrderDetail{Order: order, Items: lines}
		return nil
	})
	if err != nil {
		s.reject(ctx, mylog, "create_order", err)
		return dto.OrderDetail{}, err
	}

	ctx = logtags.AddTag(ctx, "order", detail.Order.ID)
	metrics.OrdersCreated.Inc()
	mylog.Ctx(ctx).Info("Order created",
		"order_number", detail.Order.Number(),
		"created_by", actor,
		"items", len(detail.Items),
		"total", detail.Order.Total.StringFixed(MoneyPlaces))

	s.publish(ctx, detail.Order, "", actor)
	return detail, nil
}

// SyncItems makes the order's lines match desired: lines with an id are
// updated, lines without one are added, and lines left out are removed.
// Totals are recomputed in the same transaction.
func (s *OrderService) SyncItems(ctx context.Context, orderID int64, req dto.SyncItemsRequest) (dto.OrderDetail, error) {
	ctx = logtags.AddTag(ctx, "order", orderID)
	mylog := s.mylog.Action("sync_items")

	if err := validateLines(req.Items); err != nil {
		s.reject(ctx, mylog, "sync_items", err)
		return dto.OrderDetail{}, err
	}

	var detail dto.OrderDetail
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Editable() {
			return errors.Wrapf(core.ErrOrderNotEditable, "order %s is %s", order.Number(), order.Status)
		}

		existing, err := tx.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		current := make(map[int64]models.OrderItem, len(existing))
		for _, it := range existing {
			current[it.ID] = it
		}

		// Validate everything before the first write.
		var updates, inserts []models.OrderItem
		keep := make(map[int64]bool, len(req.Items))
		for i, want := range req.Items {
			if want.ID == 0 {
				line, err := snapshotLine(ctx, tx, i, want)
				if err != nil {
					return err
				}
				line.OrderID = orderID
				inserts = append(inserts, line)
				continue
			}

			line, ok := current[want.ID]
			if !ok {
				return errors.Wrapf(core.ErrInvalidOrderItem, "item %d: line %d does not belong to order %s", i+1, want.ID, order.Number())
			}
			if keep[want.ID] {
				return errors.Wrapf(core.ErrInvalidOrderItem, "item %d: line %d listed twice", i+1, want.ID)
			}
			keep[want.ID] = true
			if line.Qty != want.Quantity || line.Notes != want.Notes {
				line.Qty = want.Quantity
				line.Notes = want.Notes
				updates = append(updates, line)
			}
		}

		for _, it := range existing {
			if keep[it.ID] {
				continue
			}
			if err := tx.DeleteItem(ctx, orderID, it.ID); err != nil {
				return errors.Wrapf(err, "delete line %d", it.ID)
			}
		}
		for i := range updates {
			if err := tx.UpdateItem(ctx, &updates[i]); err != nil {
				return errors.Wrapf(err, "update line %d", updates[i].ID)
			}
		}
		for i := range inserts {
			if err := tx.InsertItem(ctx, &inserts[i]); err != nil {
				return errors.Wrapf(err, "insert item %q", inserts[i].ItemName)
			}
		}

		items, err := tx.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		Recalc(&order, items)
		if err := tx.UpdateOrder(ctx, &order); err != nil {
			return errors.Wrap(err, "update order totals")
		}

		detail = dto.OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		s.reject(ctx, mylog, "sync_items", err)
		return dto.OrderDetail{}, err
	}

	mylog.Ctx(ctx).Info("Order items synced",
		"actor", actorOrDefault(req.Actor),
		"items", len(detail.Items),
		"total", detail.Order.Total.StringFixed(MoneyPlaces))
	return detail, nil
}

// AdjustCharges sets discount and tax on a non-terminal order and
// recomputes its total.
func (s *OrderService) AdjustCharges(ctx context.Context, orderID int64, req dto.ChargesRequest) (models.Order, error) {
	ctx = logtags.AddTag(ctx, "order", orderID)
	mylog := s.mylog.Action("adjust_charges")

	discount, tax, err := charges(req.Discount, req.Tax)
	if err != nil {
		s.reject(ctx, mylog, "adjust_charges", err)
		return models.Order{}, err
	}

	var order models.Order
	err = s.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return errors.Wrapf(core.ErrOrderNotEditable, "order %s is %s", o.Number(), o.Status)
		}

		items, err := tx.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		o.Discount = discount
		o.Tax = tax
		Recalc(&o, items)
		if err := tx.UpdateOrder(ctx, &o); err != nil {
			return errors.Wrap(err, "update order charges")
		}
		order = o
		return nil
	})
	if err != nil {
		s.reject(ctx, mylog, "adjust_charges", err)
		return models.Order{}, err
	}

	mylog.Ctx(ctx).Info("Order charges adjusted",
		"discount", order.Discount.StringFixed(MoneyPlaces),
		"tax", order.Tax.StringFixed(MoneyPlaces),
		"total", order.Total.StringFixed(MoneyPlaces))
	return order, nil
}

func (s *OrderService) resolveCustomer(ctx context.Context, tx core.ITx, ref dto.CustomerRef) (models.Customer, error) {
	if ref.ID != 0 {
		return tx.GetCustomer(ctx, ref.ID)
	}

	name := strings.TrimSpace(ref.Name)
	email := strings.ToLower(strings.TrimSpace(ref.Email))
	if name == "" {
		return models.Customer{}, errors.Wrap(core.ErrInvalidCustomer, "customer name is required")
	}
	if email == "" {
		return models.Customer{}, errors.Wrap(core.ErrInvalidCustomer, "customer email is required")
	}
	if len(name) < core.MinCustomerNameLen || len(name) > core.MaxCustomerNameLen {
		return models.Customer{}, errors.Wrapf(core.ErrInvalidCustomer,
			"customer name length must be in range [%d, %d]", core.MinCustomerNameLen, core.MaxCustomerNameLen)
	}
	if len(email) > core.MaxEmailLen {
		return models.Customer{}, errors.Wrapf(core.ErrInvalidCustomer, "customer email longer than %d", core.MaxEmailLen)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.Customer{}, errors.Wrapf(core.ErrInvalidCustomer, "customer email %q is not valid", email)
	}

	customer, created, err := tx.GetOrCreateCustomer(ctx, models.Customer{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(ref.Phone),
		Address: strings.TrimSpace(ref.Address),
	})
	if err != nil {
		return models.Customer{}, errors.Wrap(err, "resolve customer")
	}
	if created {
		s.mylog.Action("customer_created").Ctx(ctx).Info("New customer created", "customer_id", customer.ID, "email", customer.Email)
	}
	return customer, nil
}

// snapshotLine validates one requested line against the catalog and
// captures the item's current name and price.
func snapshotLine(ctx context.Context, tx core.ITx, idx int, req dto.ItemRequest) (models.OrderItem, error) {
	mi, err := tx.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return models.OrderItem{}, errors.Wrapf(core.ErrInvalidOrderItem, "item %d: menu item %d not found or inactive", idx+1, req.MenuItemID)
		}
		return models.OrderItem{}, err
	}
	if !mi.IsActive {
		return models.OrderItem{}, errors.Wrapf(core.ErrInvalidOrderItem, "item %d: menu item %d not found or inactive", idx+1, req.MenuItemID)
	}

	menuItemID := mi.ID
	return models.OrderItem{
		MenuItemID: &menuItemID,
		ItemName:   mi.Name,
		UnitPrice:  mi.Price.Round(MoneyPlaces),
		Qty:        req.Quantity,
		Notes:      req.Notes,
	}, nil
}

// validateLines runs the checks that need no store access.
func validateLines(items []dto.ItemRequest) error {
	if len(items) == 0 {
		return core.ErrEmptyOrder
	}
	if len(items) > core.MaxItems {
		return errors.Wrapf(core.ErrInvalidOrderItem, "amount of items: %d, must be at most %d", len(items), core.MaxItems)
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return errors.Wrapf(core.ErrInvalidOrderItem, "item %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if item.Quantity > core.MaxItemQuantity {
			return errors.Wrapf(core.ErrInvalidOrderItem, "item %d: quantity %d exceeds %d", i+1, item.Quantity, core.MaxItemQuantity)
		}
		if item.ID == 0 && item.MenuItemID <= 0 {
			return errors.Wrapf(core.ErrInvalidOrderItem, "item %d: menu item id is required", i+1)
		}
	}
	return nil
}

func charges(discount, tax decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if discount.Sign() < 0 || tax.Sign() < 0 {
		return decimal.Decimal{}, decimal.Decimal{}, errors.Wrapf(core.ErrInvalidCharges,
			"discount %s, tax %s", discount.String(), tax.String())
	}
	return discount.Round(MoneyPlaces), tax.Round(MoneyPlaces), nil
}
