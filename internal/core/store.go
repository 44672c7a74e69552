package core

import (
	"context"
	"fmt"
)

// RowStore is the managed table service registrations are written to.
//
// Insert writes a single row into table and asks for the written row(s)
// back. Application-level rejections (constraint violations, permission
// denials) are reported in StoreResponse.Error. A non-nil error return
// means the call itself failed: the network, the client, or decoding.
type RowStore interface {
	Insert(ctx context.Context, table string, row Row) (StoreResponse, error)
}

// StoreResponse is what the store reports for an insert.
type StoreResponse struct {
	Data  []Row
	Error *StoreError
}

// StoreError is a rejection reported by the store. Code carries the
// Postgres SQLSTATE when the backend provides one.
type StoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`

	// Status is the HTTP status of the store response, 0 for direct
	// database connections.
	Status int `json:"-"`
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store rejected insert (%s): %s", e.Code, e.Message)
	}
	return "store rejected insert: " + e.Message
}

// SQLSTATE classes the web layer cares about.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateNotNullViolation    = "23502"
	SQLStateCheckViolation      = "23514"
	SQLStateInsufficientPriv    = "42501"
	SQLStateUndefinedTable      = "42P01"
)

// TransportError wraps an unexpected failure while calling the store.
// Its message is the original error's message, unchanged.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
