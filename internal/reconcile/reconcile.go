// Package reconcile implements the per-table, per-row reconciliation
// pipeline: schema validation, dual-write (raw archive + canonical
// upsert) and failure accumulation.
//
// Every loaded row is archived to its raw table regardless of
// validity; only rows passing row-level validation are upserted into
// the canonical table. The archive and the upsert are two independent
// single-statement writes, deliberately not atomic with respect to
// each other: a crash between them leaves an archived row without a
// canonical counterpart, never the reverse.
package reconcile

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database operations the pipeline needs.
// Satisfied by *pgxpool.Pool and pgx.Tx. Each Exec on a pool is a
// single-statement transaction of its own.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
