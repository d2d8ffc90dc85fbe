package reconcile

// validate.go checks loaded data against its table descriptor at two
// levels. Bulk validation looks at whole columns and reports systemic
// problems (type drift, broken uniqueness, missing columns) as one
// aggregated record per table; it is advisory and never stops row
// processing. Row validation is the enforcement gate: a row failing it
// is archived but never upserted.

import (
	"fmt"
	"strings"

	"github.com/patcky/dema-ai-assignment/internal/ledger"
	"github.com/patcky/dema-ai-assignment/internal/schema"
	"github.com/patcky/dema-ai-assignment/internal/tabular"
)

// Violation is one (column, value) pair that failed row validation.
type Violation struct {
	Column string
	Value  string
}

func (v Violation) String() string {
	return fmt.Sprintf("(%s, %q)", v.Column, v.Value)
}

// ValidateDataset bulk-checks every declared column across the whole
// dataset: presence, type conformance, nullability, pattern and
// uniqueness. All failing constraints are reported in a single ledger
// record for the table. Failures here do not halt per-row processing.
func ValidateDataset(ds tabular.Dataset, table schema.Table, led *ledger.Ledger) {
	var failures []string

	for _, col := range table.Columns {
		cells, ok := ds.Column(col.Name)
		if !ok {
			failures = append(failures, fmt.Sprintf("column %q is missing", col.Name))
			continue
		}

		nulls, badType, badPattern := 0, 0, 0
		seen := make(map[string]bool, len(cells))
		dupes := 0

		for _, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				nulls++
				continue
			}
			if !col.Check(cell) {
				badType++
			}
			if col.Pattern != nil && !col.Pattern.MatchString(cell) {
				badPattern++
			}
			if col.Unique {
				if seen[cell] {
					dupes++
				}
				seen[cell] = true
			}
		}

		if nulls > 0 && !col.Nullable {
			failures = append(failures, fmt.Sprintf("column %q has %d null values but is not nullable", col.Name, nulls))
		}
		if badType > 0 {
			failures = append(failures, fmt.Sprintf("column %q has %d values that are not %s", col.Name, badType, col.Type))
		}
		if badPattern > 0 && col.Type != schema.TypeTimestamp {
			failures = append(failures, fmt.Sprintf("column %q has %d values not matching pattern", col.Name, badPattern))
		}
		if dupes > 0 {
			failures = append(failures, fmt.Sprintf("column %q has %d duplicate values but must be unique", col.Name, dupes))
		}
	}

	if len(failures) > 0 {
		led.Add(table.Name, fmt.Sprintf("Error validating schema for %s: %s", table.Name, strings.Join(failures, "; ")))
	}
}

// RowViolations checks a single row against the descriptor. For every
// declared column the value is acceptable if it is null and the column
// is nullable, or if it conforms to the declared type. Everything else
// is collected as a violation.
func RowViolations(row tabular.Row, table schema.Table) []Violation {
	var violations []Violation
	for _, col := range table.Columns {
		raw, present := row.Get(col.Name)
		if !present || raw == "" {
			if !col.Nullable {
				violations = append(violations, Violation{Column: col.Name, Value: raw})
			}
			continue
		}
		if !col.Check(raw) {
			violations = append(violations, Violation{Column: col.Name, Value: raw})
		}
	}
	return violations
}

// ValidateRow is the authoritative gate for the canonical upsert. On
// any violation it adds one ledger record naming the row's leading
// value and every failing (column, value) pair, and reports the row
// invalid.
func ValidateRow(row tabular.Row, table schema.Table, led *ledger.Ledger) bool {
	violations := RowViolations(row, table)
	if len(violations) == 0 {
		return true
	}

	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = v.String()
	}
	led.Add(table.Name, fmt.Sprintf("Invalid fields for columns in row %s: [%s]", row.Leading(), strings.Join(parts, ", ")))
	return false
}
