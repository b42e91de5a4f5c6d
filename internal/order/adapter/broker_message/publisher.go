// Package brokermessage delivers order status events to the configured
// message broker.
package brokermessage

import (
	"context"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

// New returns the publisher for cfg.Broker. With BrokerNone it returns a
// nil publisher and events are not sent.
func New(ctx context.Context, cfg *config.Config, mylog logger.Logger) (core.IPublisher, error) {
	switch cfg.Broker {
	case config.BrokerRabbitMQ:
		r, err := NewRabbitMQ(ctx, cfg.RMQ, mylog)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.BrokerKafka:
		return NewKafka(cfg.Kafka, mylog), nil
	case config.BrokerNone:
		return nil, nil
	}
	return nil, errors.Newf("unknown broker %q", cfg.Broker)
}
