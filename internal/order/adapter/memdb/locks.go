package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"restaurant-system/internal/order/app/core"
)

// rowLocks hands out one exclusive lock per row key ("table:3",
// "order:17"). A waiter gives up after timeout with ErrLockWait, the same
// way Postgres gives up on lock_timeout.
type rowLocks struct {
	mu      sync.Mutex
	rows    map[string]*semaphore.Weighted
	timeout time.Duration
}

func newRowLocks(timeout time.Duration) *rowLocks {
	return &rowLocks{
		rows:    make(map[string]*semaphore.Weighted),
		timeout: timeout,
	}
}

func (l *rowLocks) row(key string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.rows[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.rows[key] = sem
	}
	return sem
}

func (l *rowLocks) acquire(ctx context.Context, key string) error {
	sem := l.row(key)
	if sem.TryAcquire(1) {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "wait for %s", key)
		}
		return errors.Wrapf(core.ErrLockWait, "%s still locked after %s", key, l.timeout)
	}
	return nil
}

func (l *rowLocks) release(key string) {
	l.row(key).Release(1)
}
