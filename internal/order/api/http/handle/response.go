package handle

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/order/app/core"
)

var errInternal = errors.New("internal error")

func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes an error response as JSON with the specified HTTP status code.
func jsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	body := map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	}
	if hint := errors.FlattenHints(err); hint != "" {
		body["hint"] = hint
	}
	_ = json.NewEncoder(w).Encode(body)
}

// StatusCode maps a service error to its HTTP status.
func StatusCode(err error) int {
	switch core.Kind(err) {
	case "NotFound":
		return http.StatusNotFound
	case "InvalidCustomer", "InvalidOrderItem", "EmptyOrder", "InvalidPaymentAmount",
		"InvalidPaymentMethod", "InvalidCharges":
		return http.StatusUnprocessableEntity
	case "TableUnavailable", "InvalidTransition", "NotCancellable", "OrderNotEditable":
		return http.StatusConflict
	case "LockWait":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// serviceError writes err with its mapped status. Internal failures are
// not echoed to the client.
func serviceError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	switch code {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	case http.StatusInternalServerError:
		err = errInternal
	}
	jsonError(w, code, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Newf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to parse JSON")
	}
	return nil
}
