package handle

import (
	"context"
	"net/http"

	"restaurant-system/internal/order/app/services"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
)

type KitchenHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
}

func NewKitchenHandler(orderService *services.OrderService, mylog logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func (kh *KitchenHandler) Queue() http.HandlerFunc {
	return kh.queue(kh.orderService.KitchenQueue)
}

func (kh *KitchenHandler) Ready() http.HandlerFunc {
	return kh.queue(kh.orderService.ReadyQueue)
}

func (kh *KitchenHandler) Pending() http.HandlerFunc {
	return kh.queue(kh.orderService.PendingQueue)
}

func (kh *KitchenHandler) queue(list func(context.Context) ([]dto.KitchenTicket, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestCtx(r)
		defer cancel()

		tickets, err := list(ctx)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, tickets)
	}
}

func (kh *KitchenHandler) MarkPreparing() http.HandlerFunc {
	return kh.mark(kh.orderService.MarkPreparing)
}

func (kh *KitchenHandler) MarkReady() http.HandlerFunc {
	return kh.mark(kh.orderService.MarkReady)
}

func (kh *KitchenHandler) mark(apply func(context.Context, int64, string) (models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.ActorRequest
		if err := decode(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		order, err := apply(ctx, id, req.Actor)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (kh *KitchenHandler) TableStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		ts, err := kh.orderService.TableStatus(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, ts)
	}
}
