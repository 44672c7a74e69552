// Package rowstore provides core.RowStore implementations.
//
// Postgres talks to the database directly through pgx. REST talks to a
// PostgREST endpoint, such as a hosted Supabase project, over HTTP. Both
// report constraint and permission failures as a core.StoreError in the
// response and reserve the error return for calls that could not complete.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used for inserts.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres inserts rows with INSERT ... RETURNING *.
type Postgres struct {
	db DBTX
}

// NewPostgres creates a Postgres store over db.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Insert writes row into table and returns the row as stored.
func (p *Postgres) Insert(ctx context.Context, table string, row core.Row) (core.StoreResponse, error) {
	if len(row) == 0 {
		return core.StoreResponse{}, fmt.Errorf("insert into %s: empty row", table)
	}

	query, args := buildInsert(table, row)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return classify(err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return classify(err)
	}

	data := make([]core.Row, len(maps))
	for i, m := range maps {
		row := make(core.Row, len(m))
		for col, v := range m {
			row[col] = jsonValue(v)
		}
		data[i] = row
	}
	return core.StoreResponse{Data: data}, nil
}

// jsonValue converts pgx's decoded values into the form PostgREST would
// send. uuid columns decode to [16]byte and would otherwise encode as a
// list of numbers.
func jsonValue(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	default:
		return v
	}
}

// Ping checks the connection when the underlying handle supports it.
func (p *Postgres) Ping(ctx context.Context) error {
	if pinger, ok := p.db.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// buildInsert renders a single-row insert. Columns are sorted so the
// statement is stable for a given set of keys.
func buildInsert(table string, row core.Row) (string, []any) {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}

// classify splits server-side rejections from everything else.
func classify(err error) (core.StoreResponse, error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return core.StoreResponse{Error: &core.StoreError{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
		}}, nil
	}
	return core.StoreResponse{}, err
}
