package brokermessage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/xpkg/config"
	xerrors "restaurant-system/internal/xpkg/errors"
	"restaurant-system/internal/xpkg/logger"
)

// RabbitMQ publishes status updates to a fanout exchange in confirm mode.
type RabbitMQ struct {
	ctx          context.Context
	cfg          *config.RabbitMQ
	conn         *amqp.Connection
	ch           *amqp.Channel
	mylog        logger.Logger
	reconnecting bool
	mu           *sync.Mutex
}

func NewRabbitMQ(
	ctx context.Context,
	rabbitmqCfg *config.RabbitMQ,
	mylog logger.Logger,
) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:   ctx,
		cfg:   rabbitmqCfg,
		mylog: mylog,
		mu:    &sync.Mutex{},
	}
	if err := r.connect(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "connect to rabbitmq"), xerrors.ErrMBConn)
	}
	return r, nil
}

// URL is the amqp address for cfg.
func URL(cfg *config.RabbitMQ) string {
	return cfg.URL()
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(URL(r.cfg))
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return err
	}

	err = ch.ExchangeDeclare(
		r.cfg.Exchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.reconnecting = false
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) IsAlive() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return xerrors.ErrMBConn
	}
	if r.ch == nil || r.ch.IsClosed() {
		return xerrors.ErrMBCh
	}
	return nil
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

// PushMessage publishes one status update and waits for the broker ack.
func (r *RabbitMQ) PushMessage(ctx context.Context, message dto.StatusUpdateMessage) error {
	if err := r.IsAlive(); err != nil {
		r.mylog.Action("push_message").Warn("RabbitMQ connection lost, reconnecting", "error", err.Error())
		go r.reconnect(r.ctx)
		return errors.Wrap(err, "rabbitmq")
	}

	body, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "marshal status update")
	}

	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		r.cfg.Exchange, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			MessageId:    message.MessageID,
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    message.Timestamp,
		})
	if err != nil {
		return errors.Wrap(err, "publish status update")
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrap(err, "wait for publish confirm")
	}
	if !acked {
		return errors.Newf("broker nacked status update for order %s", message.OrderNumber)
	}

	r.mylog.Action("status_update_published").Debug("Status update published",
		"order_number", message.OrderNumber, "new_status", message.NewStatus)
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	t := time.NewTicker(time.Second * core.RMQReconnectionInterval)
	defer t.Stop()
	log := r.mylog.Action("rabbitmq_reconnecting")

	for {
		select {
		case <-t.C:
			err := r.connect()
			if err == nil {
				log.Info("RabbitMQ reconnected")
				return
			}
			log.Warn("RabbitMQ failed to reconnect", "error", err.Error())

		case <-ctx.Done():
			r.mu.Lock()
			r.reconnecting = false
			r.mu.Unlock()
			return
		}
	}
}
