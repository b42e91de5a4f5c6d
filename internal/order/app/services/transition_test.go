package services

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/domain/models"
)

func TestTransitionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Garlic Bread", 1))
	id := detail.Order.ID

	f.walk(t, id, models.StatusConfirmed)
	o, err := f.svc.MarkPreparing(ctx, id, "chef-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPreparing, o.Status)
	o, err = f.svc.MarkReady(ctx, id, "chef-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusReady, o.Status)
	require.Contains(t, o.Notes, core.NoteReady)

	o, err = f.svc.ApplyTransition(ctx, id, models.StatusServed, "waiter-2", "")
	require.NoError(t, err)
	require.NotNil(t, o.ServedBy)
	require.Equal(t, "waiter-2", *o.ServedBy)
	require.Equal(t, models.TableOccupied, f.table(t, 0).Status)

	o = f.walk(t, id, models.StatusCompleted)
	require.Equal(t, models.StatusCompleted, o.Status)
	require.Equal(t, models.TableVacant, f.table(t, 0).Status)

	_, err = f.svc.ApplyTransition(ctx, id, models.StatusPending, "waiter-2", "")
	require.ErrorIs(t, err, core.ErrInvalidTransition)
	require.NotEmpty(t, errors.GetAllHints(err))

	history, err := f.svc.StatusHistory(ctx, id)
	require.NoError(t, err)
	var got []models.OrderStatus
	for _, h := range history {
		got = append(got, h.Status)
	}
	require.Equal(t, models.AllStatuses[:6], got)
	require.Equal(t, core.NotePreparing, history[2].Note)

	msgs := f.pub.messages()
	require.Len(t, msgs, 6)
	last := msgs[len(msgs)-1]
	require.Equal(t, models.StatusServed, last.OldStatus)
	require.Equal(t, models.StatusCompleted, last.NewStatus)
}

func TestTransitionRejectedLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Garlic Bread", 1))

	_, err := f.svc.ApplyTransition(ctx, detail.Order.ID, models.StatusReady, "chef-1", "skipping ahead")
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = f.svc.ApplyTransition(ctx, detail.Order.ID, "BURNT", "chef-1", "")
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = f.svc.ApplyTransition(ctx, 4242, models.StatusConfirmed, "chef-1", "")
	require.ErrorIs(t, err, core.ErrNotFound)

	got, err := f.svc.GetOrder(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got.Order.Status)
	require.Equal(t, detail.Order.Notes, got.Order.Notes)
	require.Len(t, f.pub.messages(), 1)
}

func TestTransitionNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createRequest(0, f.line("Garlic Bread", 1))
	req.Notes = "Window seat"
	detail, err := f.svc.CreateOrder(ctx, req)
	require.NoError(t, err)

	o, err := f.svc.ApplyTransition(ctx, detail.Order.ID, models.StatusConfirmed, "waiter-1", "Allergy checked")
	require.NoError(t, err)
	require.Regexp(t, `^Window seat\n\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}\] Allergy checked$`, o.Notes)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, path := range [][]models.OrderStatus{
		nil,
		{models.StatusConfirmed},
		{models.StatusConfirmed, models.StatusPreparing},
		{models.StatusConfirmed, models.StatusPreparing, models.StatusReady},
	} {
		detail := f.createOrder(t, 0, f.line("Garlic Bread", 1))
		f.walk(t, detail.Order.ID, path...)

		o, err := f.svc.CancelOrder(ctx, detail.Order.ID, "manager", "customer left")
		require.NoError(t, err)
		require.Equal(t, models.StatusCancelled, o.Status)
		require.Contains(t, o.Notes, "Cancelled: customer left")
		require.Equal(t, models.TableVacant, f.table(t, 0).Status)

		_, err = f.svc.CancelOrder(ctx, detail.Order.ID, "manager", "")
		require.ErrorIs(t, err, core.ErrInvalidTransition)
	}

	served := f.createOrder(t, 1, f.line("Garlic Bread", 1))
	f.walk(t, served.Order.ID, models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusServed)
	_, err := f.svc.CancelOrder(ctx, served.Order.ID, "manager", "")
	require.ErrorIs(t, err, core.ErrNotCancellable)
	require.Equal(t, models.TableOccupied, f.table(t, 1).Status)

	f.walk(t, served.Order.ID, models.StatusCompleted)
	_, err = f.svc.CancelOrder(ctx, served.Order.ID, "manager", "")
	require.ErrorIs(t, err, core.ErrNotCancellable)
}

func TestTableKeptWhileAnotherOrderIsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createOrder(t, 0, f.line("Garlic Bread", 1))

	// A second active order on the same table, as left behind by a merge of
	// two parties.
	var second models.Order
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx core.ITx) error {
		second = models.Order{
			CustomerID: first.Order.CustomerID,
			TableID:    first.Order.TableID,
			Status:     models.StatusConfirmed,
		}
		return tx.InsertOrder(ctx, &second)
	}))

	_, err := f.svc.CancelOrder(ctx, first.Order.ID, "manager", "")
	require.NoError(t, err)
	require.Equal(t, models.TableOccupied, f.table(t, 0).Status)

	_, err = f.svc.CancelOrder(ctx, second.ID, "manager", "")
	require.NoError(t, err)
	require.Equal(t, models.TableVacant, f.table(t, 0).Status)
}

func TestConcurrentTransitionsOnOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Garlic Bread", 1))
	f.walk(t, detail.Order.ID, models.StatusConfirmed)

	var (
		g                  errgroup.Group
		prepErr, cancelErr error
	)
	g.Go(func() error {
		_, prepErr = f.svc.MarkPreparing(ctx, detail.Order.ID, "chef-1")
		return nil
	})
	g.Go(func() error {
		_, cancelErr = f.svc.CancelOrder(ctx, detail.Order.ID, "waiter-1", "")
		return nil
	})
	require.NoError(t, g.Wait())

	got, err := f.svc.GetOrder(ctx, detail.Order.ID)
	require.NoError(t, err)

	if prepErr != nil {
		// Cancel went first; preparing a cancelled order is not allowed.
		require.ErrorIs(t, prepErr, core.ErrInvalidTransition)
		require.NoError(t, cancelErr)
		require.Equal(t, models.StatusCancelled, got.Order.Status)
		return
	}
	// Preparing went first; PREPARING -> CANCELLED is still allowed.
	require.NoError(t, cancelErr)
	require.Equal(t, models.StatusCancelled, got.Order.Status)

	history, err := f.svc.StatusHistory(ctx, detail.Order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPreparing, history[len(history)-2].Status)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail := f.createOrder(t, 0, f.line("Garlic Bread", 1))
	f.pub.err = errors.New("broker down")

	o, err := f.svc.ApplyTransition(ctx, detail.Order.ID, models.StatusConfirmed, "waiter-1", "")
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, o.Status)
}
