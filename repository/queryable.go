package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryable is satisfied by both the connection pool and a transaction
type Queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// QueryObserver measures repository calls. The metrics provider implements it.
type QueryObserver interface {
	MeasureDatabaseQuery(repository, method string) func()
}

type noopObserver struct{}

func (noopObserver) MeasureDatabaseQuery(string, string) func() { return func() {} }
