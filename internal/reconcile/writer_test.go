package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/patcky/dema-ai-assignment/internal/schema"
	"github.com/patcky/dema-ai-assignment/internal/tabular"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall

	// failOn makes Exec fail for statements containing the substring.
	failOn string
	err    error

	// tag overrides the command tag returned on success.
	tag string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		if f.err != nil {
			return pgconn.CommandTag{}, f.err
		}
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	if f.tag != "" {
		return pgconn.NewCommandTag(f.tag), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) sqls() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.sql
	}
	return out
}

func productsRow(cells ...string) tabular.Row {
	return productsDataset(cells).Row(0)
}

func TestArchive(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(db, "public")
	captured := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return captured }

	row := productsRow("P1", "Widget", "10", "A", "A1")
	if err := w.Archive(context.Background(), schema.Products, row); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if len(db.calls) != 1 {
		t.Fatalf("Archive issued %d statements, want 1", len(db.calls))
	}
	call := db.calls[0]
	if !strings.HasPrefix(call.sql, `INSERT INTO "public"."raw_products" (payload, timestamp)`) {
		t.Errorf("sql = %q", call.sql)
	}

	payload, ok := call.args[0].(map[string]any)
	if !ok {
		t.Fatalf("payload arg = %T, want map", call.args[0])
	}
	if payload["productid"] != "P1" || payload["quantity"] != "10" {
		t.Errorf("payload = %v", payload)
	}
	if call.args[1] != captured {
		t.Errorf("timestamp arg = %v, want %v", call.args[1], captured)
	}
}

func TestArchive_ZeroRowsAffected(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 0"}
	w := NewWriter(db, "public")

	err := w.Archive(context.Background(), schema.Products, productsRow("P1", "Widget", "10", "A", "A1"))
	if err == nil {
		t.Fatal("zero rows affected must be reported as a failure")
	}
	if !strings.Contains(err.Error(), "no rows inserted") {
		t.Errorf("error = %v", err)
	}
}

func TestUpsert(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(db, "public")

	row := productsRow("P1", "Widget", "15", "A", "A1")
	if err := w.Upsert(context.Background(), schema.Products, row); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	call := db.calls[0]
	if !strings.HasPrefix(call.sql, `INSERT INTO "public"."products" (productid, name, quantity, category, subcategory)`) {
		t.Errorf("sql = %q", call.sql)
	}
	if !strings.Contains(call.sql, "ON CONFLICT (productid) DO UPDATE SET") {
		t.Errorf("sql = %q, want conflict clause on the primary key", call.sql)
	}
	if strings.Contains(call.sql, "productid = EXCLUDED.productid") {
		t.Errorf("sql = %q, key column must not be overwritten", call.sql)
	}
	for _, col := range []string{"name", "quantity", "category", "subcategory"} {
		if !strings.Contains(call.sql, col+" = EXCLUDED."+col) {
			t.Errorf("sql = %q, missing overwrite of %s", call.sql, col)
		}
	}

	if len(call.args) != 5 {
		t.Fatalf("args = %d, want 5", len(call.args))
	}
	if v, ok := call.args[2].(pgtype.Int8); !ok || !v.Valid || v.Int64 != 15 {
		t.Errorf("quantity arg = %#v, want typed integer 15", call.args[2])
	}
	if v, ok := call.args[0].(pgtype.Text); !ok || v.String != "P1" {
		t.Errorf("productid arg = %#v", call.args[0])
	}
}

func TestUpsert_NullableNull(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(db, "reporting")

	ds := tabular.Dataset{
		Headers: []string{"orderid", "productid", "currency", "quantity", "shippingcost",
			"amount", "channel", "channelgroup", "campaign", "datetime"},
		Rows: [][]string{
			{"O1", "P1", "USD", "2", "4.99", "30.00", "web", "paid", "", "2024-03-01T12:30:00Z"},
		},
	}

	if err := w.Upsert(context.Background(), schema.Orders, ds.Row(0)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	call := db.calls[0]
	if !strings.HasPrefix(call.sql, `INSERT INTO "reporting"."orders"`) {
		t.Errorf("sql = %q", call.sql)
	}

	// campaign is the 9th declared column; null becomes an invalid
	// pgtype value, encoded as SQL NULL.
	if v, ok := call.args[8].(pgtype.Text); !ok || v.Valid {
		t.Errorf("campaign arg = %#v, want SQL NULL", call.args[8])
	}
	if v, ok := call.args[4].(pgtype.Float8); !ok || !v.Valid || v.Float64 != 4.99 {
		t.Errorf("shippingcost arg = %#v", call.args[4])
	}
}

func TestUpsert_Failure(t *testing.T) {
	db := &fakeDB{failOn: "ON CONFLICT", err: errors.New("deadlock detected")}
	w := NewWriter(db, "public")

	err := w.Upsert(context.Background(), schema.Products, productsRow("P1", "Widget", "10", "A", "A1"))
	if err == nil {
		t.Fatal("Upsert() should surface the database error")
	}
	if !strings.Contains(err.Error(), "deadlock") {
		t.Errorf("error = %v", err)
	}
}

func TestUpsert_ZeroRowsAffected(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 0"}
	w := NewWriter(db, "public")

	err := w.Upsert(context.Background(), schema.Products, productsRow("P1", "Widget", "10", "A", "A1"))
	if err == nil {
		t.Fatal("zero rows affected must be reported as a failure")
	}
}
