package core

import (
	"context"

	"restaurant-system/internal/order/domain/dto"
)

// IPublisher delivers status events to whatever broker is configured.
type IPublisher interface {
	Close() error
	PushMessage(ctx context.Context, message dto.StatusUpdateMessage) error
}
