package brokermessage

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

type ackRecorder struct {
	acked, requeued, dropped int
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked++; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.dropped++
	}
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

func TestRabbitMQDeliver(t *testing.T) {
	r := &RabbitMQ{mylog: logger.Nop()}
	tests := []struct {
		name string
		err  error
		want ackRecorder
	}{
		{"handled", nil, ackRecorder{acked: 1}},
		{"malformed", errors.Wrap(core.ErrBadMessage, "no order number"), ackRecorder{dropped: 1}},
		{"transient", errors.New("stdout closed"), ackRecorder{requeued: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &ackRecorder{}
			d := amqp.Delivery{Acknowledger: rec, DeliveryTag: 1, MessageId: "m-1", Body: []byte("{}")}

			var got []byte
			r.deliver(context.Background(), d, func(_ context.Context, body []byte) error {
				got = body
				return tt.err
			})
			assert.Equal(t, tt.want, *rec)
			assert.Equal(t, []byte("{}"), got)
		})
	}
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestKafkaConsumeCommitsHandledAndDropped(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("good")},
		{Offset: 2, Value: []byte("bad")},
		{Offset: 3, Value: []byte("good")},
	}}
	k := &Kafka{r: reader, mylog: logger.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen int
	err := k.Consume(ctx, func(_ context.Context, body []byte) error {
		seen++
		if seen == 3 {
			cancel()
		}
		if string(body) == "bad" {
			return errors.Wrap(core.ErrBadMessage, "bad")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestKafkaConsumeStopsOnHandlerFailure(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 5, Value: []byte("x")}}}
	k := &Kafka{r: reader, mylog: logger.Nop()}

	err := k.Consume(context.Background(), func(context.Context, []byte) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Empty(t, reader.committed)

	require.NoError(t, k.Close())
	assert.True(t, reader.closed)
}

func TestMessageID(t *testing.T) {
	m := kafka.Message{Key: []byte("7"), Headers: []kafka.Header{{Key: "message_id", Value: []byte("m-1")}}}
	assert.Equal(t, "m-1", messageID(m))
	assert.Equal(t, "7", messageID(kafka.Message{Key: []byte("7")}))
}

func TestNewSource(t *testing.T) {
	cfg := config.LoadDotEnv()

	cfg.Broker = config.BrokerNone
	_, err := New(cfg, 1, logger.Nop())
	assert.Error(t, err)

	cfg.Broker = "nats"
	_, err = New(cfg, 1, logger.Nop())
	assert.Error(t, err)
}
