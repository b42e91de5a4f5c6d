package handle

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-system/internal/order/app/core"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errors.Wrap(core.ErrNotFound, "order 7"), http.StatusNotFound},
		{core.ErrInvalidCustomer, http.StatusUnprocessableEntity},
		{core.ErrInvalidOrderItem, http.StatusUnprocessableEntity},
		{core.ErrEmptyOrder, http.StatusUnprocessableEntity},
		{core.ErrInvalidPaymentAmount, http.StatusUnprocessableEntity},
		{core.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity},
		{core.ErrInvalidCharges, http.StatusUnprocessableEntity},
		{core.ErrTableUnavailable, http.StatusConflict},
		{core.ErrInvalidTransition, http.StatusConflict},
		{core.ErrNotCancellable, http.StatusConflict},
		{core.ErrOrderNotEditable, http.StatusConflict},
		{errors.Wrap(core.ErrLockWait, "lock table 3"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, StatusCode(tt.err), tt.err.Error())
	}
}

func TestServiceError(t *testing.T) {
	t.Run("lock wait asks the client to retry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		serviceError(rec, errors.Wrap(core.ErrLockWait, "lock order 1"))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("internal errors are not echoed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		serviceError(rec, errors.New("connection reset by peer"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("hints are surfaced", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := errors.WithHint(errors.Wrap(core.ErrInvalidTransition, "PENDING to SERVED"), "valid next statuses: CONFIRMED, CANCELLED")
		serviceError(rec, err)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "valid next statuses: CONFIRMED, CANCELLED", body["hint"])
		assert.EqualValues(t, http.StatusConflict, body["code"])
	})
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/12", nil)
	req.SetPathValue("id", "12")
	id, err := pathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, v := range []string{"", "x", "-4", "0"} {
		req.SetPathValue("id", v)
		_, err := pathID(req, "id")
		assert.Error(t, err, v)
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Actor string `json:"actor"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, decode(req, &v))
	assert.Empty(t, v.Actor)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"actor":"chef-1"}`))
	require.NoError(t, decode(req, &v))
	assert.Equal(t, "chef-1", v.Actor)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"actor":`))
	assert.Error(t, decode(req, &v))
}
