package services

import (
	"context"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
)

// KitchenQueue lists CONFIRMED and PREPARING orders, oldest first.
func (s *OrderService) KitchenQueue(ctx context.Context) ([]dto.KitchenTicket, error) {
	return s.queue(ctx, "kitchen_queue", models.OrderQuery{
		Statuses: []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing},
		SortBy:   models.SortByCreated,
	})
}

// ReadyQueue lists READY orders by the time they became ready.
func (s *OrderService) ReadyQueue(ctx context.Context) ([]dto.KitchenTicket, error) {
	return s.queue(ctx, "ready_queue", models.OrderQuery{
		Statuses: []models.OrderStatus{models.StatusReady},
		SortBy:   models.SortByUpdated,
	})
}

// PendingQueue lists orders waiting for confirmation, oldest first.
func (s *OrderService) PendingQueue(ctx context.Context) ([]dto.KitchenTicket, error) {
	return s.queue(ctx, "pending_queue", models.OrderQuery{
		Statuses: []models.OrderStatus{models.StatusPending},
		SortBy:   models.SortByCreated,
	})
}

func (s *OrderService) queue(ctx context.Context, action string, q models.OrderQuery) ([]dto.KitchenTicket, error) {
	mylog := s.mylog.Action(action)
	now := s.now()

	var tickets []dto.KitchenTicket
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		orders, err := r.ListOrders(ctx, q)
		if err != nil {
			return err
		}

		tickets = make([]dto.KitchenTicket, 0, len(orders))
		categories := map[int64]string{}
		for _, o := range orders {
			t, err := ticket(ctx, r, o, categories)
			if err != nil {
				return errors.Wrapf(err, "build ticket for order %s", o.Number())
			}
			t.Elapsed = now.Sub(o.CreatedAt)
			tickets = append(tickets, t)
		}
		return nil
	})
	if err != nil {
		mylog.Error("Failed to build queue", err)
		return nil, err
	}

	mylog.Debug("Queue built", "orders", len(tickets))
	return tickets, nil
}

// ticket groups an order's lines by catalog category, keeping the order in
// which categories first appear.
func ticket(ctx context.Context, r core.IReader, o models.Order, categories map[int64]string) (dto.KitchenTicket, error) {
	table, err := r.GetTable(ctx, o.TableID)
	if err != nil {
		return dto.KitchenTicket{}, err
	}
	customer, err := r.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return dto.KitchenTicket{}, err
	}
	items, err := r.ListItems(ctx, o.ID)
	if err != nil {
		return dto.KitchenTicket{}, err
	}

	stations := []dto.Station{}
	index := map[string]int{}
	for _, it := range items {
		category := dto.UnknownStation
		if it.MenuItemID != nil {
			name, ok := categories[*it.MenuItemID]
			if !ok {
				mi, err := r.GetMenuItem(ctx, *it.MenuItemID)
				switch {
				case err == nil:
					name = mi.CategoryName
				case errors.Is(err, core.ErrNotFound):
					name = dto.UnknownStation
				default:
					return dto.KitchenTicket{}, err
				}
				categories[*it.MenuItemID] = name
			}
			category = name
		}

		i, ok := index[category]
		if !ok {
			i = len(stations)
			index[category] = i
			stations = append(stations, dto.Station{Category: category})
		}
		stations[i].Items = append(stations[i].Items, dto.TicketLine{
			Name:     it.ItemName,
			Quantity: it.Qty,
			Notes:    it.Notes,
		})
	}

	return dto.KitchenTicket{
		OrderID:      o.ID,
		OrderNumber:  o.Number(),
		TableNumber:  table.Number,
		CustomerName: customer.Name,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Stations:     stations,
		TotalItems:   len(items),
		Notes:        o.Notes,
	}, nil
}

// TableStatus returns the table with its active orders.
func (s *OrderService) TableStatus(ctx context.Context, tableID int64) (dto.TableStatus, error) {
	var ts dto.TableStatus
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		table, err := r.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		orders, err := r.ListOrders(ctx, models.OrderQuery{
			Statuses: models.ActiveStatuses,
			TableID:  tableID,
			SortBy:   models.SortByCreated,
		})
		if err != nil {
			return err
		}
		ts = dto.TableStatus{Table: table, ActiveOrders: orders}
		return nil
	})
	if err != nil {
		return dto.TableStatus{}, err
	}
	return ts, nil
}

// GetOrder returns the order and its lines.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (dto.OrderDetail, error) {
	var detail dto.OrderDetail
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		order, err := r.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := r.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		detail = dto.OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return dto.OrderDetail{}, err
	}
	return detail, nil
}

func (s *OrderService) OrderSummary(ctx context.Context, orderID int64) (dto.OrderSummary, error) {
	var summary dto.OrderSummary
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		order, err := r.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := r.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		payments, err := r.ListPayments(ctx, orderID)
		if err != nil {
			return err
		}
		paid := AmountPaid(payments)
		summary = dto.OrderSummary{
			Order:             order,
			Items:             items,
			TotalItems:        len(items),
			CanBeCancelled:    order.Status.Cancellable(),
			ValidNextStatuses: order.Status.Next(),
			AmountPaid:        paid,
			BalanceDue:        BalanceDue(order.Total, paid),
		}
		return nil
	})
	if err != nil {
		return dto.OrderSummary{}, err
	}
	return summary, nil
}

// StatusHistory returns the order's status log, oldest first.
func (s *OrderService) StatusHistory(ctx context.Context, orderID int64) ([]models.StatusLog, error) {
	var history []models.StatusLog
	err := s.store.View(ctx, func(ctx context.Context, r core.IReader) error {
		if _, err := r.GetOrder(ctx, orderID); err != nil {
			return err
		}
		var err error
		history, err = r.ListStatusLog(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
