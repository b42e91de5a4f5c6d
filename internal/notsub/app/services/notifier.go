package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/order/domain/dto"
	"restaurant-system/internal/xpkg/logger"
)

// dedupWindow bounds how many message ids are remembered for
// redelivery detection.
const dedupWindow = 1024

// Notifier turns status events into customer-facing notification lines.
type Notifier struct {
	out   io.Writer
	mylog logger.Logger

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func NewNotifier(out io.Writer, mylog logger.Logger) *Notifier {
	return &Notifier{
		out:   out,
		mylog: mylog,
		seen:  make(map[string]struct{}, dedupWindow),
	}
}

// Decode parses and checks a raw status event. Anything unusable is
// marked with core.ErrBadMessage.
func Decode(body []byte) (dto.StatusUpdateMessage, error) {
	var msg dto.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, errors.Mark(errors.Wrap(err, "unmarshal status message"), core.ErrBadMessage)
	}
	switch {
	case msg.OrderNumber == "":
		return msg, errors.Wrap(core.ErrBadMessage, "order_number is empty")
	case !msg.NewStatus.Valid():
		return msg, errors.Wrapf(core.ErrBadMessage, "unknown new_status %q", msg.NewStatus)
	case msg.OldStatus != "" && !msg.OldStatus.Valid():
		return msg, errors.Wrapf(core.ErrBadMessage, "unknown old_status %q", msg.OldStatus)
	}
	return msg, nil
}

// Format renders the line shown to the customer.
func Format(msg dto.StatusUpdateMessage) string {
	if msg.OldStatus == "" {
		return fmt.Sprintf("Notification for order %s: Status is now '%s' (set by %s).",
			msg.OrderNumber, msg.NewStatus, msg.ChangedBy)
	}
	return fmt.Sprintf("Notification for order %s: Status changed from '%s' to '%s' by %s.",
		msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
}

// Handle decodes body and prints its notification once per message id.
func (n *Notifier) Handle(ctx context.Context, body []byte) error {
	msg, err := Decode(body)
	if err != nil {
		return err
	}

	log := n.mylog.Ctx(ctx).WithGroup("details").With("order_number", msg.OrderNumber, "new_status", msg.NewStatus)
	if !n.remember(msg.MessageID) {
		log.Action("notification_duplicate").Debug("Skipping redelivered status update", "message_id", msg.MessageID)
		return nil
	}

	log.Action("notification_received").Info("Received status update for order")
	if _, err := fmt.Fprintln(n.out, Format(msg)); err != nil {
		n.forget(msg.MessageID)
		return errors.Wrap(err, "write notification")
	}
	return nil
}

// remember records id and reports whether it was new. Empty ids are
// never deduplicated.
func (n *Notifier) remember(id string) bool {
	if id == "" {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.seen[id]; ok {
		return false
	}
	n.seen[id] = struct{}{}
	n.order = append(n.order, id)
	if len(n.order) > dedupWindow {
		delete(n.seen, n.order[0])
		n.order = n.order[1:]
	}
	return true
}

func (n *Notifier) forget(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.seen, id)
}
