// Package ledger accumulates structured failure records during a
// reconciliation run and persists them to the errors table once the
// run is over. Every failure anywhere in the pipeline lands here:
// records are logged synchronously as they are added, so a long run
// streams its failures live, and flushed durably at the end.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database operations the ledger needs.
// Satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Record is one persisted failure.
type Record struct {
	RecordID   uuid.UUID
	RecordType string
	Errors     string
	Timestamp  time.Time
}

// Ledger is an ordered, in-memory sequence of failure records.
// It is not safe for concurrent use; the pipeline is sequential.
type Ledger struct {
	log     *slog.Logger
	schema  string
	records []Record
}

// New returns a ledger that flushes into the errors table of the given
// database schema. An empty schema name targets the connection's
// default search path.
func New(log *slog.Logger, schema string) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{log: log, schema: schema}
}

// Add appends a failure record for the given record type (entity,
// table or file path the failure relates to) and logs it immediately.
func (l *Ledger) Add(recordType, message string) {
	rec := Record{
		RecordID:   uuid.New(),
		RecordType: recordType,
		Errors:     message,
		Timestamp:  time.Now(),
	}
	l.log.Error("record failed",
		"record_type", rec.RecordType,
		"record_id", rec.RecordID,
		"error", rec.Errors,
	)
	l.records = append(l.records, rec)
}

// Len returns the number of accumulated records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns the accumulated records in insertion order.
func (l *Ledger) Records() []Record {
	return l.records
}

// Flush writes all accumulated records to the errors table as a single
// multi-row insert, then drains the ledger. A flush failure is fatal to
// the run: there is no further sink for it, so it propagates.
func (l *Ledger) Flush(ctx context.Context, db DBTX) error {
	if len(l.records) == 0 {
		return nil
	}

	l.log.Info("saving errors to database", "count", len(l.records))

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(l.tableIdent())
	b.WriteString(" (recordid, recordtype, errors, timestamp) VALUES ")

	args := make([]any, 0, len(l.records)*4)
	for i, rec := range l.records {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, rec.RecordID, rec.RecordType, rec.Errors, rec.Timestamp)
	}

	if _, err := db.Exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("flush %d error records: %w", len(l.records), err)
	}

	l.records = nil
	return nil
}

func (l *Ledger) tableIdent() string {
	if l.schema == "" {
		return pgx.Identifier{"errors"}.Sanitize()
	}
	return pgx.Identifier{l.schema, "errors"}.Sanitize()
}
