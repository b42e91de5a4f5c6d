package brokermessage

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/xpkg/config"
	xerrors "restaurant-system/internal/xpkg/errors"
	"restaurant-system/internal/xpkg/logger"
	"restaurant-system/internal/xpkg/metrics"
)

const consumerTag = "notification-subscriber"

// RabbitMQ consumes the status fanout through a durable queue bound to it.
type RabbitMQ struct {
	cfg      *config.RabbitMQ
	conn     *amqp.Connection
	ch       *amqp.Channel
	mylog    logger.Logger
	workers  int
	prefetch int
	mu       sync.Mutex
}

func NewRabbitMQ(rabbitmqCfg *config.RabbitMQ, workers int, mylog logger.Logger) (*RabbitMQ, error) {
	if workers <= 0 {
		workers = 1
	}
	r := &RabbitMQ{
		cfg:      rabbitmqCfg,
		mylog:    mylog,
		workers:  workers,
		prefetch: workers * 2,
	}
	if err := r.connect(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "connect to rabbitmq"), xerrors.ErrMBConn)
	}
	return r, nil
}

func (r *RabbitMQ) Name() string { return config.BrokerRabbitMQ }

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.cfg.URL())
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.Qos(r.prefetch, 0, false); err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(r.cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return err
	}

	q, err := ch.QueueDeclare(
		r.cfg.Queue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.QueueBind(q.Name, "", r.cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

// Consume hands deliveries to at most r.workers concurrent handlers.
// Malformed messages are dropped, other failures are requeued.
func (r *RabbitMQ) Consume(ctx context.Context, handle core.Handler) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()

	deliveries, err := ch.ConsumeWithContext(ctx, r.cfg.Queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "consume notifications queue"), xerrors.ErrMBCh)
	}
	r.mylog.Action("consuming_started").Info("Started consuming status updates", "queue", r.cfg.Queue)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for {
		select {
		case <-gctx.Done():
			return g.Wait()
		case d, ok := <-deliveries:
			if !ok {
				_ = g.Wait()
				return core.ErrSourceClosed
			}
			g.Go(func() error {
				r.deliver(gctx, d, handle)
				return nil
			})
		}
	}
}

func (r *RabbitMQ) deliver(ctx context.Context, d amqp.Delivery, handle core.Handler) {
	ctx = logtags.AddTag(ctx, "msg", d.MessageId)
	log := r.mylog.Action("process_delivery").Ctx(ctx)

	err := handle(ctx, d.Body)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues(r.Name(), "ok").Inc()
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("Failed to ack", ackErr)
		}
	case errors.Is(err, core.ErrBadMessage):
		metrics.Notifications.WithLabelValues(r.Name(), "dropped").Inc()
		log.Warn("Dropping malformed status update", "error", err.Error())
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("Failed to nack", nackErr)
		}
	default:
		metrics.Notifications.WithLabelValues(r.Name(), "requeued").Inc()
		log.Error("Failed to handle status update", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("Failed to nack", nackErr)
		}
	}
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return errors.Wrap(err, "close rabbitmq channel")
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return errors.Wrap(err, "close rabbitmq connection")
		}
	}
	return nil
}
