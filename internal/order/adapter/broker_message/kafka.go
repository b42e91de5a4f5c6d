package brokermessage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

// Kafka publishes status updates keyed by order id, so all updates of one
// order land on the same partition in order.
type Kafka struct {
	w     *kafka.Writer
	mylog logger.Logger
}

func NewKafka(cfg *config.Kafka, mylog logger.Logger) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           5 * time.Second,
			AllowAutoTopicCreation: true,
		},
		mylog: mylog,
	}
}

// ToKafkaMessage encodes a status update for the order's partition.
func ToKafkaMessage(message dto.StatusUpdateMessage) (kafka.Message, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal status update")
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(message.OrderID, 10)),
		Value: body,
		Time:  message.Timestamp,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(message.MessageID)},
		},
	}, nil
}

func (k *Kafka) PushMessage(ctx context.Context, message dto.StatusUpdateMessage) error {
	msg, err := ToKafkaMessage(message)
	if err != nil {
		return err
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write status update for order %s", message.OrderNumber)
	}

	k.mylog.Action("status_update_published").Debug("Status update published",
		"order_number", message.OrderNumber, "new_status", message.NewStatus)
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
