package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Queryer is the subset of pgx query methods the stores need. Extracted as
// an interface so tests can substitute fakes for a live pool. The stores are
// single-row readers and writers, so QueryRow is all they call.
type Queryer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Tx is a subset of pgx.Tx; pgx.Tx itself does not implement it directly,
// so the pool wrapper adapts it.
type Tx interface {
	Queryer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB opens transactions and answers one-off queries. *pgxpool.Pool is
// adapted to it via WrapPool.
type DB interface {
	Queryer
	Begin(ctx context.Context) (Tx, error)
	Close()
}

type pgxTx struct {
	base pgx.Tx
}

var _ Tx = (*pgxTx)(nil)

func (t *pgxTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.base.QueryRow(ctx, sql, args...)
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.base.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.base.Rollback(ctx) }

type pgxDB struct {
	base *pgxpool.Pool
}

var _ DB = (*pgxDB)(nil)

func (p *pgxDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.base.QueryRow(ctx, sql, args...)
}

func (p *pgxDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.base.Begin(ctx)
	if tx == nil {
		return nil, err
	}
	return &pgxTx{base: tx}, err
}

func (p *pgxDB) Close() { p.base.Close() }

// WrapPool adapts a pgx pool to the DB interface.
func WrapPool(p *pgxpool.Pool) DB {
	return &pgxDB{base: p}
}

// Connect opens a pgx pool for the given URL and wraps it.
func Connect(ctx context.Context, url string) (DB, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return WrapPool(pool), nil
}
