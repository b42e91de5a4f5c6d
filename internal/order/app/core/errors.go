package core

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrTableUnavailable     = errors.New("table is not available")
	ErrInvalidCustomer      = errors.New("invalid customer")
	ErrInvalidOrderItem     = errors.New("invalid order item")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrOrderNotEditable     = errors.New("order is not editable")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotCancellable       = errors.New("cannot cancel an order that has been served or completed")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrInvalidPaymentMethod = errors.New("invalid payment method or status")
	ErrInvalidCharges       = errors.New("discount and tax cannot be negative")
	ErrNotFound             = errors.New("not found")

	// ErrLockWait marks a transient lock or serialization failure. The
	// transaction was rolled back and the caller may retry.
	ErrLockWait = errors.New("lock wait failed, retry the operation")

	ErrDBConn = errors.New("db connection failure")
	ErrHelp   = errors.New("")
)

// IsRetryable reports whether err is a transient failure the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockWait)
}

// Kind names the taxonomy entry err belongs to, for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTableUnavailable):
		return "TableUnavailable"
	case errors.Is(err, ErrInvalidCustomer):
		return "InvalidCustomer"
	case errors.Is(err, ErrInvalidOrderItem):
		return "InvalidOrderItem"
	case errors.Is(err, ErrEmptyOrder):
		return "EmptyOrder"
	case errors.Is(err, ErrOrderNotEditable):
		return "OrderNotEditable"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrNotCancellable):
		return "NotCancellable"
	case errors.Is(err, ErrInvalidPaymentAmount):
		return "InvalidPaymentAmount"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "InvalidPaymentMethod"
	case errors.Is(err, ErrInvalidCharges):
		return "InvalidCharges"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrLockWait):
		return "LockWait"
	}
	return "Internal"
}
