package brokermessage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

func TestNewPublisher(t *testing.T) {
	ctx := context.Background()

	pub, err := New(ctx, &config.Config{Broker: config.BrokerNone}, logger.Nop())
	require.NoError(t, err)
	require.Nil(t, pub)

	pub, err = New(ctx, &config.Config{
		Broker: config.BrokerKafka,
		Kafka:  &config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "order_status_updates"},
	}, logger.Nop())
	require.NoError(t, err)
	require.IsType(t, &Kafka{}, pub)
	require.NoError(t, pub.Close())

	_, err = New(ctx, &config.Config{Broker: "carrier-pigeon"}, logger.Nop())
	require.ErrorContains(t, err, "carrier-pigeon")
}

func TestToKafkaMessage(t *testing.T) {
	ts := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	in := dto.StatusUpdateMessage{
		MessageID:   "c4a5",
		OrderID:     42,
		OrderNumber: "#000042",
		TableID:     3,
		OldStatus:   models.StatusReady,
		NewStatus:   models.StatusServed,
		ChangedBy:   "waiter-2",
		Timestamp:   ts,
	}

	msg, err := ToKafkaMessage(in)
	require.NoError(t, err)
	require.Equal(t, "42", string(msg.Key))
	require.Equal(t, ts, msg.Time)
	require.Equal(t, "message_id", msg.Headers[0].Key)
	require.Equal(t, "c4a5", string(msg.Headers[0].Value))

	var out dto.StatusUpdateMessage
	require.NoError(t, json.Unmarshal(msg.Value, &out))
	require.Equal(t, in, out)
}

func TestRabbitMQURL(t *testing.T) {
	require.Equal(t, "amqp://guest:secret@mq:5672/orders", URL(&config.RabbitMQ{
		User: "guest", Password: "secret", Host: "mq", Port: "5672", VHost: "orders",
	}))
}
