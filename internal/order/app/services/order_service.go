package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
	"restaurant-system/internal/xpkg/metrics"
)

// DefaultActor is recorded when a request does not name a staff member.
const DefaultActor = "order-service"

type OrderService struct {
	store     core.IStore
	tables    *TableCoordinator
	publisher core.IPublisher
	mylog     logger.Logger
	now       func() time.Time
}

type Option func(*OrderService)

// WithClock replaces the wall clock used for note stamps and elapsed times.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) {
		s.now = now
	}
}

func NewOrderService(
	store core.IStore,
	publisher core.IPublisher,
	mylogger logger.Logger,
	opts ...Option,
) *OrderService {
	s := &OrderService{
		store:     store,
		tables:    NewTableCoordinator(mylogger),
		publisher: publisher,
		mylog:     mylogger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish sends the status event for a committed change. The change is
// already durable, so a broker failure is only logged.
func (s *OrderService) publish(ctx context.Context, o models.Order, from models.OrderStatus, actor string) {
	if from != "" {
		metrics.Transitions.WithLabelValues(string(from), string(o.Status)).Inc()
	}
	if s.publisher == nil {
		return
	}

	msg := dto.StatusUpdateMessage{
		MessageID:   uuid.NewString(),
		OrderID:     o.ID,
		OrderNumber: o.Number(),
		TableID:     o.TableID,
		OldStatus:   from,
		NewStatus:   o.Status,
		ChangedBy:   actor,
		Timestamp:   s.now().UTC(),
	}
	if err := s.publisher.PushMessage(ctx, msg); err != nil {
		s.mylog.Action("publish_failed").Ctx(ctx).Error("Failed to publish status update", err,
			"order_number", msg.OrderNumber, "new_status", msg.NewStatus)
	}
}

// reject logs a failed operation and counts it by error kind.
func (s *OrderService) reject(ctx context.Context, mylog logger.Logger, op string, err error) {
	kind := core.Kind(err)
	metrics.Rejections.WithLabelValues(op, kind).Inc()

	switch kind {
	case "Internal":
		mylog.Ctx(ctx).Error("Operation failed", err)
	case "LockWait":
		mylog.Ctx(ctx).Warn("Lock wait failed, caller may retry", "error", err.Error())
	default:
		mylog.Ctx(ctx).Info("Operation rejected", "kind", kind, "reason", err.Error())
	}
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return DefaultActor
	}
	return actor
}
