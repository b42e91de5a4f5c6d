package handle

import (
	"context"
	"net/http"
	"time"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/app/services"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/xpkg/logger"
)

type OrderHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
}

func NewOrderHandler(orderService *services.OrderService, mylog logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), core.WaitTime*time.Second)
}

func (oh *OrderHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CreateOrderRequest
		if err := decode(r, &req); err != nil {
			oh.mylog.Action("parse_failed").Warn("Failed to parse order", "error", err.Error())
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestCtx(r)
		defer cancel()

		detail, err := oh.orderService.CreateOrder(ctx, req)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, detail)
	}
}

func (oh *OrderHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		detail, err := oh.orderService.GetOrder(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, detail)
	}
}

func (oh *OrderHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		summary, err := oh.orderService.OrderSummary(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, summary)
	}
}

func (oh *OrderHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		history, err := oh.orderService.StatusHistory(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, history)
	}
}

func (oh *OrderHandler) SyncItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.SyncItemsRequest
		if err := decode(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		detail, err := oh.orderService.SyncItems(ctx, id, req)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, detail)
	}
}

func (oh *OrderHandler) AdjustCharges() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.ChargesRequest
		if err := decode(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		order, err := oh.orderService.AdjustCharges(ctx, id, req)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) Transition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.TransitionRequest
		if err := decode(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		order, err := oh.orderService.ApplyTransition(ctx, id, req.Status, req.Actor, req.Note)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.CancelRequest
		if err := decode(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		order, err := oh.orderService.CancelOrder(ctx, id, req.Actor, req.Reason)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}
