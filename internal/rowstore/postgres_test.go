package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows is a minimal pgx.Rows over in-memory values.
type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("INSERT 0 1") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.err != nil || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.values[r.pos-1], nil }

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	return errors.New("fakeRows: unsupported scan")
}

// fakeDB records the last query and answers with rows or err.
type fakeDB struct {
	sql  string
	args []any

	rows pgx.Rows
	err  error
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.sql = sql
	d.args = args
	if d.err != nil {
		return nil, d.err
	}
	return d.rows, nil
}

func TestBuildInsert(t *testing.T) {
	row := core.Row{
		"user_id":    "u1",
		"email":      "a@b.com",
		"first_name": "Jane",
	}

	query, args := buildInsert("User", row)

	wantQuery := `INSERT INTO "User" ("email", "first_name", "user_id") VALUES ($1, $2, $3) RETURNING *`
	if query != wantQuery {
		t.Errorf("query = %q, want %q", query, wantQuery)
	}
	wantArgs := []any{"a@b.com", "Jane", "u1"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestBuildInsert_QuotesIdentifiers(t *testing.T) {
	query, _ := buildInsert(`we"ird`, core.Row{"a": 1})

	want := `INSERT INTO "we""ird" ("a") VALUES ($1) RETURNING *`
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
}

func TestPostgresInsert_ReturnsRows(t *testing.T) {
	rows := &fakeRows{
		fields: []pgconn.FieldDescription{{Name: "id"}, {Name: "email"}},
		values: [][]any{{int64(7), "a@b.com"}},
	}
	db := &fakeDB{rows: rows}

	resp, err := NewPostgres(db).Insert(context.Background(), "User", core.Row{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("Insert() store error = %v", resp.Error)
	}

	want := []core.Row{{"id": int64(7), "email": "a@b.com"}}
	if !reflect.DeepEqual(resp.Data, want) {
		t.Errorf("Data = %v, want %v", resp.Data, want)
	}
	if !rows.closed {
		t.Error("rows were not closed")
	}
	if db.sql != `INSERT INTO "User" ("email") VALUES ($1) RETURNING *` {
		t.Errorf("sql = %q", db.sql)
	}
}

func TestPostgresInsert_UUIDColumnsEncodeAsStrings(t *testing.T) {
	id := uuid.MustParse("6f1c1b0e-9a0e-4a63-9a5e-0c1f7f1d2e3a")
	rows := &fakeRows{
		fields: []pgconn.FieldDescription{{Name: "user_id"}, {Name: "aliases"}},
		values: [][]any{{[16]byte(id), []any{[16]byte(id), nil}}},
	}

	resp, err := NewPostgres(&fakeDB{rows: rows}).Insert(context.Background(), "User", core.Row{"user_id": id.String()})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `[{"aliases":["6f1c1b0e-9a0e-4a63-9a5e-0c1f7f1d2e3a",null],"user_id":"6f1c1b0e-9a0e-4a63-9a5e-0c1f7f1d2e3a"}]`
	if string(got) != want {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func TestPostgresInsert_PgErrorBecomesStoreError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "User_email_key"`,
		Detail:  "Key (email)=(a@b.com) already exists.",
	}

	tests := []struct {
		name string
		db   *fakeDB
	}{
		{"error from query", &fakeDB{err: pgErr}},
		{"error while reading rows", &fakeDB{rows: &fakeRows{err: pgErr}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewPostgres(tt.db).Insert(context.Background(), "User", core.Row{"email": "a@b.com"})
			if err != nil {
				t.Fatalf("Insert() error = %v, want nil", err)
			}
			if resp.Data != nil {
				t.Errorf("Data = %v, want nil", resp.Data)
			}
			if resp.Error == nil {
				t.Fatal("Error = nil, want StoreError")
			}
			if resp.Error.Code != "23505" {
				t.Errorf("Code = %q, want 23505", resp.Error.Code)
			}
			if resp.Error.Details != pgErr.Detail {
				t.Errorf("Details = %q, want %q", resp.Error.Details, pgErr.Detail)
			}
		})
	}
}

func TestPostgresInsert_OtherErrorsAreReturned(t *testing.T) {
	connErr := errors.New("failed to connect to `host=db`: dial error")
	db := &fakeDB{err: connErr}

	resp, err := NewPostgres(db).Insert(context.Background(), "User", core.Row{"email": "a@b.com"})
	if !errors.Is(err, connErr) {
		t.Fatalf("Insert() error = %v, want %v", err, connErr)
	}
	if resp.Error != nil || resp.Data != nil {
		t.Errorf("resp = %+v, want zero value", resp)
	}
}

func TestPostgresInsert_EmptyRow(t *testing.T) {
	db := &fakeDB{}
	if _, err := NewPostgres(db).Insert(context.Background(), "User", core.Row{}); err == nil {
		t.Fatal("Insert() with empty row should fail")
	}
	if db.sql != "" {
		t.Errorf("query issued for empty row: %q", db.sql)
	}
}
