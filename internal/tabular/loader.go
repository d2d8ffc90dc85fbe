// Package tabular reads delimited extract files into in-memory
// datasets with normalized column names.
package tabular

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/patcky/dema-ai-assignment/internal/ledger"
)

// HeaderIndex maps lowercased column names to their position in a row.
type HeaderIndex map[string]int

// Dataset is the in-memory form of one loaded extract file.
// Headers are lowercased and trimmed; cells are raw strings and an
// empty cell is a null.
type Dataset struct {
	Headers []string
	Rows    [][]string

	index HeaderIndex
}

// Load reads the CSV file at path. On any read or parse failure it
// adds one ledger record tagged with the file path and returns an
// empty dataset; callers treat an empty dataset as "no data" and must
// report that condition themselves rather than proceed.
func Load(path string, led *ledger.Ledger) Dataset {
	slog.Info("reading csv file", "path", path)

	f, err := os.Open(path)
	if err != nil {
		led.Add(path, fmt.Sprintf("Error reading CSV file: %s. Error: %v", path, err))
		return Dataset{}
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		led.Add(path, fmt.Sprintf("Error reading CSV file: %s. Error: %v", path, err))
		return Dataset{}
	}
	if len(records) == 0 {
		return Dataset{}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return Dataset{Headers: headers, Rows: records[1:], index: makeIndex(headers)}
}

func makeIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

// Empty reports whether the dataset holds no data rows.
func (d Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// Index returns the dataset's header index.
func (d Dataset) Index() HeaderIndex {
	if d.index == nil {
		d.index = makeIndex(d.Headers)
	}
	return d.index
}

// Row returns the i-th data row bound to the dataset's header index.
func (d Dataset) Row(i int) Row {
	return Row{cells: d.Rows[i], index: d.Index(), headers: d.Headers}
}

// Column returns every cell of the named column, in row order.
func (d Dataset) Column(name string) ([]string, bool) {
	pos, ok := d.Index()[name]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		if pos < len(row) {
			out = append(out, row[pos])
		} else {
			out = append(out, "")
		}
	}
	return out, true
}

// Row is one data row bound to its header index.
type Row struct {
	cells   []string
	index   HeaderIndex
	headers []string
}

// Get returns the raw cell value for the named column. ok is false
// when the column is absent from the file entirely; a present but
// empty cell returns ("", true).
func (r Row) Get(name string) (string, bool) {
	pos, ok := r.index[name]
	if !ok {
		return "", false
	}
	if pos >= len(r.cells) {
		return "", true
	}
	return strings.TrimSpace(r.cells[pos]), true
}

// Leading returns the row's first cell, used to identify the row in
// failure messages.
func (r Row) Leading() string {
	if len(r.cells) == 0 {
		return ""
	}
	return strings.TrimSpace(r.cells[0])
}

// Payload returns the full row as received, keyed by lowercased
// column name. Empty cells become nils so they archive as JSON nulls.
func (r Row) Payload() map[string]any {
	payload := make(map[string]any, len(r.headers))
	for i, h := range r.headers {
		if i >= len(r.cells) || strings.TrimSpace(r.cells[i]) == "" {
			payload[h] = nil
			continue
		}
		payload[h] = r.cells[i]
	}
	return payload
}
