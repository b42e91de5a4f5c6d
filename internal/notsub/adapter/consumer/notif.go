package consumer

import (
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/notsub/app/core"
	"restaurant-system/internal/notsub/app/services"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"

	brokermessage "restaurant-system/internal/notsub/adapter/broker_message"
)

type Notification struct {
	cfg     *config.Config
	mylog   logger.Logger
	out     io.Writer
	workers int
	source  core.ISource
	ctx     context.Context

	mu sync.Mutex
}

func NewNotification(
	ctx context.Context,
	cfg *config.Config,
	out io.Writer,
	workers int,
	mylog logger.Logger,
) *Notification {
	return &Notification{
		ctx:     ctx,
		cfg:     cfg,
		out:     out,
		workers: workers,
		mylog:   mylog,
	}
}

// Run subscribes and prints notifications until the context ends or the
// subscription fails.
func (n *Notification) Run() error {
	mylog := n.mylog.Action("run_notifications")

	source, err := brokermessage.New(n.cfg, n.workers, n.mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	mylog.Action("mb_connected").Info("Successful message broker connection", "broker", source.Name())

	n.mu.Lock()
	n.source = source
	n.mu.Unlock()

	return n.consume(source)
}

func (n *Notification) consume(source core.ISource) error {
	notifier := services.NewNotifier(n.out, n.mylog)
	err := source.Consume(n.ctx, notifier.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (n *Notification) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.mylog.Action("graceful_shutdown_started").Info("Shutting down")
	if n.source != nil {
		if err := n.source.Close(); err != nil {
			n.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return errors.Wrap(err, "mb close")
		}
		n.mylog.Action("mb_closed").Info("Message broker closed")
	}
	n.mylog.Action("graceful_shutdown_completed").Info("Successfully shut down")
	return nil
}
