package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/patcky/dema-ai-assignment/internal/ledger"
	"github.com/patcky/dema-ai-assignment/internal/schema"
	"github.com/patcky/dema-ai-assignment/internal/tabular"
)

// Pipeline reconciles a set of entity extracts into the relational
// store, sequentially: one entity at a time, one row at a time.
type Pipeline struct {
	db        DBTX
	writer    *Writer
	ledger    *ledger.Ledger
	sourceDir string
	tables    []schema.Table
	log       *slog.Logger
}

// New assembles a pipeline over the given tables. Extract files are
// resolved relative to sourceDir.
func New(db DBTX, led *ledger.Ledger, schemaName, sourceDir string, tables []schema.Table) *Pipeline {
	return &Pipeline{
		db:        db,
		writer:    NewWriter(db, schemaName),
		ledger:    led,
		sourceDir: sourceDir,
		tables:    tables,
		log:       slog.Default(),
	}
}

// Run processes every entity and then flushes the error ledger. All
// load, validation and write failures are recovered locally into the
// ledger; only a ledger flush failure propagates, since the ledger is
// the terminal sink for everything else.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, table := range p.tables {
		p.processTable(ctx, table)
	}
	return p.ledger.Flush(ctx, p.db)
}

func (p *Pipeline) processTable(ctx context.Context, table schema.Table) {
	path := filepath.Join(p.sourceDir, table.File())

	ds := tabular.Load(path, p.ledger)
	if ds.Empty() {
		p.ledger.Add(table.Name, "No data found in CSV file.")
		return
	}

	p.log.Info("validating schema", "table", table.Name, "rows", len(ds.Rows))
	ValidateDataset(ds, table, p.ledger)

	upserted := 0
	for i := range ds.Rows {
		row := ds.Row(i)

		// The archive write happens for every row, valid or not.
		if err := p.writer.Archive(ctx, table, row); err != nil {
			p.ledger.Add(table.Name, fmt.Sprintf("Error saving data to raw table raw_%s. Error: %v", table.Name, err))
		}

		if !ValidateRow(row, table, p.ledger) {
			continue
		}

		if err := p.writer.Upsert(ctx, table, row); err != nil {
			p.ledger.Add(table.Name, fmt.Sprintf("Error inserting row %s: %v.", row.Leading(), err))
			continue
		}
		upserted++
	}

	p.log.Info("table reconciled", "table", table.Name, "rows", len(ds.Rows), "upserted", upserted)
}
