package reconcile

// writer.go performs the two database writes of the dual-write step.
// Each write is a single statement executed in its own implicit
// transaction; nothing is shared across rows or across the
// archive/canonical pair, and nothing is retried.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/patcky/dema-ai-assignment/internal/schema"
	"github.com/patcky/dema-ai-assignment/internal/tabular"
)

// Writer issues the raw-archive insert and the canonical upsert for a
// single entity family within one database schema.
type Writer struct {
	db     DBTX
	schema string

	now func() time.Time
}

// NewWriter returns a writer targeting the given database schema. An
// empty schema name targets the connection's default search path.
func NewWriter(db DBTX, schemaName string) *Writer {
	return &Writer{db: db, schema: schemaName, now: time.Now}
}

// Archive inserts the row's full payload plus a capture timestamp into
// raw_<table>. It is attempted for every loaded row regardless of
// validity; the raw table is a forensic record of everything received.
func (w *Writer) Archive(ctx context.Context, table schema.Table, row tabular.Row) error {
	sql := fmt.Sprintf(
		"INSERT INTO %s (payload, timestamp) VALUES ($1, $2)",
		w.ident("raw_"+table.Name),
	)

	tag, err := w.db.Exec(ctx, sql, row.Payload(), w.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no rows inserted into raw table")
	}
	return nil
}

// Upsert inserts the row into the canonical table, overwriting every
// non-key column on primary key conflict (last write wins). Only rows
// that passed row validation reach this point.
func (w *Writer) Upsert(ctx context.Context, table schema.Table, row tabular.Row) error {
	cols := table.ColumnNames()
	pk := table.PrimaryKey().Name

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	var updates []string

	for i, name := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		col, _ := table.Column(name)
		raw, _ := row.Get(name)
		args[i] = col.Value(raw)
		if name != pk {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
		}
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		w.ident(table.Name),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		pk,
		strings.Join(updates, ", "),
	)

	tag, err := w.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("could not insert row")
	}
	return nil
}

func (w *Writer) ident(name string) string {
	if w.schema == "" {
		return pgx.Identifier{name}.Sanitize()
	}
	return pgx.Identifier{w.schema, name}.Sanitize()
}
