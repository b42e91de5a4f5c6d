package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"
)

type DB struct {
	pool  *pgxpool.Pool
	mylog logger.Logger
}

// DSN builds the postgres connection string for cfg.
func DSN(cfg *config.Postgres) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)
}

// Start opens a connection pool and verifies it with a ping.
func Start(ctx context.Context, dbCfg *config.Postgres, mylog logger.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(dbCfg))
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = dbCfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	mylog.Action("db_connected").Info("Connected to PostgreSQL database", "host", dbCfg.Host, "database", dbCfg.Database)
	return &DB{pool: pool, mylog: mylog}, nil
}

func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// IsAlive pings the pool.
func (d *DB) IsAlive(ctx context.Context) error {
	if d.pool == nil {
		return errors.New("DB is not initialized")
	}
	if err := d.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping failed")
	}
	return nil
}

func (d *DB) Close() error {
	if d.pool != nil {
		d.pool.Close()
		d.mylog.Action("db_closed").Info("Database pool closed")
	}
	return nil
}
