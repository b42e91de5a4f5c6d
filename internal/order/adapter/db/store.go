package db

import (
	"context"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/xpkg/logger"
)

const (
	pgLockNotAvailable = "55P03"
	pgDeadlock         = "40P01"
)

// Store is the Postgres implementation of core.IStore. Transactions are
// retried on serialization failures by crdbpgx.ExecuteTx.
type Store struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
	mylog         logger.Logger
}

func NewStore(pool *pgxpool.Pool, lockTimeoutMS int, mylog logger.Logger) *Store {
	return &Store{
		pool:          pool,
		lockTimeoutMS: lockTimeoutMS,
		mylog:         mylog,
	}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx core.ITx) error) error {
	attempt := 0
	err := crdbpgx.ExecuteTx(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(pgTx pgx.Tx) error {
		attempt++
		if attempt > 1 {
			s.mylog.Action("tx_retry").Ctx(ctx).Debug("Retrying transaction", "attempt", attempt)
		}
		if s.lockTimeoutMS > 0 {
			if _, err := pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeoutMS)); err != nil {
				return errors.Wrap(err, "set lock timeout")
			}
		}
		return fn(ctx, &tx{reader: reader{q: pgTx}})
	})
	return classify(err)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r core.IReader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := crdbpgx.ExecuteTx(ctx, s.pool, opts, func(pgTx pgx.Tx) error {
		return fn(ctx, reader{q: pgTx})
	})
	return classify(err)
}

func (s *Store) IsAlive(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.Mark(errors.Wrap(err, "ping failed"), core.ErrDBConn)
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *Store) Close() error {
	return nil
}

// classify marks lock timeouts and deadlocks as retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlock:
			return errors.Mark(err, core.ErrLockWait)
		}
	}
	return err
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(core.ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
