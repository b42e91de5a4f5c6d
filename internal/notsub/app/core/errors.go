package core

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrBadMessage marks a delivery that can never be handled. It is
	// dropped instead of redelivered.
	ErrBadMessage = errors.New("malformed status message")

	ErrSourceClosed = errors.New("message source closed")
)

// Handler processes one raw delivery.
type Handler func(ctx context.Context, body []byte) error

// ISource is a broker subscription that feeds deliveries to a Handler.
type ISource interface {
	// Consume blocks, handing every delivery to handle until ctx ends or
	// the subscription fails.
	Consume(ctx context.Context, handle Handler) error
	Name() string
	Close() error
}
