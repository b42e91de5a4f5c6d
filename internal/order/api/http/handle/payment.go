package handle

import (
	"net/http"

	"restaurant-system/internal/order/app/services"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/xpkg/logger"
)

type PaymentHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
}

func NewPaymentHandler(orderService *services.OrderService, mylog logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func (ph *PaymentHandler) Record() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		var req dto.PaymentRequest
		if err := decode(r, &req); err != nil {
			ph.mylog.Action("parse_failed").Warn("Failed to parse payment", "error", err.Error())
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		req.OrderID = id

		ctx, cancel := requestCtx(r)
		defer cancel()

		res, err := ph.orderService.RecordPayment(ctx, req)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (ph *PaymentHandler) Settlement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := requestCtx(r)
		defer cancel()

		st, err := ph.orderService.Settlement(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, st)
	}
}
