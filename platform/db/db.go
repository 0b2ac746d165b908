// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"time"

	"camicam_crm_backend/platform/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps the shared pgx pool and stamps every logical operation with the
// configured deadline. When all MaxConns connections are busy, acquisition
// waits at most that long and then fails with context.DeadlineExceeded
// instead of queuing behind the backlog.
type Pool struct {
	inner     *pgxpool.Pool
	opTimeout time.Duration
}

// NewPool creates the database connection pool. MaxConns bounds how many
// logical operations can run against the store at once.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = cfg.GetDBMaxConns()
	poolConfig.MinConns = cfg.GetDBMinConns()
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Bound the TCP and startup handshake of each new connection too.
	if timeout := cfg.GetDBOpTimeout(); timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = timeout
	}

	inner, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pool := &Pool{inner: inner, opTimeout: cfg.GetDBOpTimeout()}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (p *Pool) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.opTimeout)
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, cancel := p.deadline(ctx)
	defer cancel()
	return p.inner.Exec(ctx, sql, args...)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, cancel := p.deadline(ctx)
	rows, err := p.inner.Query(ctx, sql, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &deadlineRows{Rows: rows, cancel: cancel}, nil
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, cancel := p.deadline(ctx)
	return &deadlineRow{row: p.inner.QueryRow(ctx, sql, args...), cancel: cancel}
}

// Begin bounds pool acquisition and the BEGIN itself; the statements inside
// the transaction run on the caller's context.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, cancel := p.deadline(ctx)
	tx, err := p.inner.Begin(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	return &deadlineTx{Tx: tx, cancel: cancel}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	ctx, cancel := p.deadline(ctx)
	defer cancel()
	return p.inner.Ping(ctx)
}

func (p *Pool) Close() {
	p.inner.Close()
}

// deadlineRow keeps the operation deadline alive until the row is scanned;
// pgx executes the query lazily inside Scan.
type deadlineRow struct {
	row    pgx.Row
	cancel context.CancelFunc
}

func (r *deadlineRow) Scan(dest ...any) error {
	defer r.cancel()
	return r.row.Scan(dest...)
}

// deadlineRows releases the operation deadline when the result set is closed.
type deadlineRows struct {
	pgx.Rows
	cancel context.CancelFunc
}

func (r *deadlineRows) Close() {
	r.Rows.Close()
	r.cancel()
}

type deadlineTx struct {
	pgx.Tx
	cancel context.CancelFunc
}

func (t *deadlineTx) Commit(ctx context.Context) error {
	defer t.cancel()
	return t.Tx.Commit(ctx)
}

func (t *deadlineTx) Rollback(ctx context.Context) error {
	defer t.cancel()
	return t.Tx.Rollback(ctx)
}

// PoolAdapter exposes the pool's health check behind a minimal interface.
type PoolAdapter struct {
	pool *Pool
}

func NewPoolAdapter(pool *Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (a *PoolAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
