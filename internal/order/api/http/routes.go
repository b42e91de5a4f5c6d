package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-system/internal/order/api/http/handle"
	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/app/services"
	"restaurant-system/internal/xpkg/logger"
	"restaurant-system/internal/xpkg/metrics"
)

// Routes registers the order API on mux and returns the wrapped handler.
func Routes(mux *http.ServeMux, orderService *services.OrderService, store core.IStore, mylog logger.Logger) http.Handler {
	orderHandler := handle.NewOrderHandler(orderService, mylog)
	kitchenHandler := handle.NewKitchenHandler(orderService, mylog)
	paymentHandler := handle.NewPaymentHandler(orderService, mylog)

	mux.Handle("POST /orders", orderHandler.Create())
	mux.Handle("GET /orders/{id}", orderHandler.Get())
	mux.Handle("GET /orders/{id}/summary", orderHandler.Summary())
	mux.Handle("GET /orders/{id}/history", orderHandler.History())
	mux.Handle("PUT /orders/{id}/items", orderHandler.SyncItems())
	mux.Handle("PUT /orders/{id}/charges", orderHandler.AdjustCharges())
	mux.Handle("POST /orders/{id}/status", orderHandler.Transition())
	mux.Handle("POST /orders/{id}/cancel", orderHandler.Cancel())

	mux.Handle("POST /orders/{id}/payments", paymentHandler.Record())
	mux.Handle("GET /orders/{id}/settlement", paymentHandler.Settlement())

	mux.Handle("GET /kitchen/queue", kitchenHandler.Queue())
	mux.Handle("GET /kitchen/ready", kitchenHandler.Ready())
	mux.Handle("GET /kitchen/pending", kitchenHandler.Pending())
	mux.Handle("POST /kitchen/orders/{id}/preparing", kitchenHandler.MarkPreparing())
	mux.Handle("POST /kitchen/orders/{id}/ready", kitchenHandler.MarkReady())
	mux.Handle("GET /tables/{id}", kitchenHandler.TableStatus())

	mux.Handle("GET /health", health(store))
	mux.Handle("GET /metrics", promhttp.Handler())

	return withRequestLog(mux, mylog)
}

func health(store core.IStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.IsAlive(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with an id, counts it by route and
// status, and logs it once it is served.
func withRequestLog(next http.Handler, mylog logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := logtags.AddTag(r.Context(), "req", reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		mylog.Action("http_request").Ctx(ctx).Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start).String())
	})
}
