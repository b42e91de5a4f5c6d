// Package brokermessage subscribes the notification service to the order
// status stream on whichever broker the order service publishes to.
package brokermessage

import (
	"github.com/cockroachdb/errors"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

// New opens the subscription named by cfg.Broker.
func New(cfg *config.Config, workers int, mylog logger.Logger) (core.ISource, error) {
	switch cfg.Broker {
	case config.BrokerRabbitMQ:
		r, err := NewRabbitMQ(cfg.RMQ, workers, mylog)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.BrokerKafka:
		return NewKafka(cfg.Kafka, mylog), nil
	case config.BrokerNone:
		return nil, errors.New("broker is none, there is nothing to subscribe to")
	}
	return nil, errors.Newf("unknown broker %q", cfg.Broker)
}
