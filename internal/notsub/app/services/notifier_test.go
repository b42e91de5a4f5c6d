package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/order/domain/models"
	"restaurant-system/internal/xpkg/logger"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func encode(t *testing.T, msg dto.StatusUpdateMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func statusMessage(id string) dto.StatusUpdateMessage {
	return dto.StatusUpdateMessage{
		MessageID:   id,
		OrderID:     7,
		OrderNumber: "ORD-00007",
		TableID:     2,
		OldStatus:   models.StatusReady,
		NewStatus:   models.StatusServed,
		ChangedBy:   "waiter-1",
		Timestamp:   time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestFormat(t *testing.T) {
	msg := statusMessage("m-1")
	assert.Equal(t, "Notification for order ORD-00007: Status changed from 'READY' to 'SERVED' by waiter-1.", Format(msg))

	msg.OldStatus = ""
	msg.NewStatus = models.StatusPending
	assert.Equal(t, "Notification for order ORD-00007: Status is now 'PENDING' (set by waiter-1).", Format(msg))
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string][]byte{
		"not json":        []byte("{"),
		"no order number": []byte(`{"message_id":"x","new_status":"READY"}`),
		"unknown status":  []byte(`{"order_number":"ORD-1","new_status":"EATEN"}`),
		"unknown old":     []byte(`{"order_number":"ORD-1","old_status":"?","new_status":"READY"}`),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(body)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrBadMessage))
		})
	}
}

func TestHandlePrintsOncePerMessage(t *testing.T) {
	out := &syncBuffer{}
	n := NewNotifier(out, logger.Nop())
	ctx := context.Background()

	body := encode(t, statusMessage("m-1"))
	require.NoError(t, n.Handle(ctx, body))
	require.NoError(t, n.Handle(ctx, body))

	lines := out.lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ORD-00007")
}

func TestHandleWithoutMessageID(t *testing.T) {
	out := &syncBuffer{}
	n := NewNotifier(out, logger.Nop())

	body := encode(t, statusMessage(""))
	require.NoError(t, n.Handle(context.Background(), body))
	require.NoError(t, n.Handle(context.Background(), body))
	assert.Len(t, out.lines(), 2)
}

func TestDedupWindowEvicts(t *testing.T) {
	n := NewNotifier(&syncBuffer{}, logger.Nop())
	for i := 0; i < dedupWindow+1; i++ {
		assert.True(t, n.remember(fmt.Sprintf("m-%d", i)))
	}
	assert.True(t, n.remember("m-0"), "oldest id is evicted")
	assert.False(t, n.remember(fmt.Sprintf("m-%d", dedupWindow)))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestHandleWriteFailureAllowsRetry(t *testing.T) {
	n := NewNotifier(failingWriter{}, logger.Nop())
	body := encode(t, statusMessage("m-1"))

	err := n.Handle(context.Background(), body)
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrBadMessage))

	n.out = &syncBuffer{}
	require.NoError(t, n.Handle(context.Background(), body))
}

func TestHandleConcurrentDuplicates(t *testing.T) {
	out := &syncBuffer{}
	n := NewNotifier(out, logger.Nop())
	body := encode(t, statusMessage("m-dup"))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			return n.Handle(context.Background(), body)
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, out.lines(), 1)
}
