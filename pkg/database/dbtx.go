package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
// Repositories depend on it so the same code runs inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Traced wraps db so every statement produces a span and feeds the slow
// query log. Transactions started from the wrapper are traced too.
func Traced(db DBTX) DBTX {
	if _, ok := db.(*tracedDB); ok {
		return db
	}
	return &tracedDB{db: db}
}

type tracedDB struct {
	db DBTX
}

func (t *tracedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	tag, err := t.db.Exec(ctx, sql, args...)
	end(err)
	return tag, err
}

func (t *tracedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	rows, err := t.db.Query(ctx, sql, args...)
	end(err)
	return rows, err
}

func (t *tracedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	return &tracedRow{row: t.db.QueryRow(ctx, sql, args...), end: end}
}

func (t *tracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, end := TraceQuery(ctx, "BEGIN", "BEGIN")
	tx, err := t.db.Begin(ctx)
	end(err)
	if err != nil {
		return nil, err
	}
	return &tracedTx{Tx: tx}, nil
}

// tracedRow closes the span once the row is scanned, since QueryRow defers
// its error until then.
type tracedRow struct {
	row pgx.Row
	end func(error)
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		r.end(nil)
	} else {
		r.end(err)
	}
	return err
}

type tracedTx struct {
	pgx.Tx
}

func (t *tracedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	tag, err := t.Tx.Exec(ctx, sql, args...)
	end(err)
	return tag, err
}

func (t *tracedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	rows, err := t.Tx.Query(ctx, sql, args...)
	end(err)
	return rows, err
}

func (t *tracedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, end := TraceQuery(ctx, operationName(sql), sql)
	return &tracedRow{row: t.Tx.QueryRow(ctx, sql, args...), end: end}
}

func (t *tracedTx) Commit(ctx context.Context) error {
	ctx, end := TraceQuery(ctx, "COMMIT", "COMMIT")
	err := t.Tx.Commit(ctx)
	end(err)
	return err
}
