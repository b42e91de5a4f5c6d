package brokermessage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/segmentio/kafka-go"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
	"restaurant-system/internal/xpkg/metrics"
)

// fetcher is the part of *kafka.Reader the consumer loop needs.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka consumes status updates as a member of the configured group.
// Offsets are committed only after a message is handled or dropped, so
// a crash redelivers rather than loses.
type Kafka struct {
	r     fetcher
	mylog logger.Logger
}

func NewKafka(cfg *config.Kafka, mylog logger.Logger) *Kafka {
	return &Kafka{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		mylog: mylog,
	}
}

func (k *Kafka) Name() string { return config.BrokerKafka }

// Consume handles messages one at a time so per-order key ordering holds.
func (k *Kafka) Consume(ctx context.Context, handle core.Handler) error {
	k.mylog.Action("consuming_started").Info("Started consuming status updates")
	for {
		m, err := k.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "fetch kafka message")
		}

		msgCtx := logtags.AddTag(ctx, "msg", messageID(m))
		log := k.mylog.Action("process_message").Ctx(msgCtx)

		err = handle(msgCtx, m.Value)
		switch {
		case err == nil:
			metrics.Notifications.WithLabelValues(k.Name(), "ok").Inc()
		case errors.Is(err, core.ErrBadMessage):
			metrics.Notifications.WithLabelValues(k.Name(), "dropped").Inc()
			log.Warn("Dropping malformed status update", "error", err.Error(), "offset", m.Offset)
		default:
			// leave the offset uncommitted; the group redelivers after a restart
			metrics.Notifications.WithLabelValues(k.Name(), "failed").Inc()
			log.Error("Failed to handle status update", err, "offset", m.Offset)
			return errors.Wrapf(err, "handle message at offset %d", m.Offset)
		}

		if err := k.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "commit kafka offset")
		}
	}
}

func (k *Kafka) Close() error {
	return errors.Wrap(k.r.Close(), "close kafka reader")
}

func messageID(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "message_id" {
			return string(h.Value)
		}
	}
	return string(m.Key)
}
