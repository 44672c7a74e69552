package core

// writer.go implements the registration write path:
//
//	validate -> insert one row -> classify the store's answer
//
// Every path ends in a Result. Validation failures, store rejections and
// transport failures are all reported through the same value, tagged by
// Outcome, so callers handle them in one switch.

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/signup/internal/logging"
)

// Outcome tags how a Create call ended.
type Outcome int

const (
	// OutcomeInserted means the store accepted the row; Result.Rows holds
	// what it reported as written.
	OutcomeInserted Outcome = iota + 1
	// OutcomeInvalid means the record failed validation. No I/O happened.
	OutcomeInvalid
	// OutcomeRejected means the store answered with an error value.
	OutcomeRejected
	// OutcomeTransportFailure means calling the store failed outright.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Result is the single return value of Writer.Create.
//
// Err is nil for OutcomeInserted and otherwise one of *ValidationError,
// *StoreError (exactly the value the store returned) or *TransportError.
type Result struct {
	Outcome Outcome
	Rows    []Row
	Err     error
}

// OK reports whether the row was written.
func (r Result) OK() bool { return r.Outcome == OutcomeInserted }

// Writer validates candidate registrations and writes them to a RowStore.
// A Writer holds no per-call state and is safe for concurrent use.
type Writer struct {
	table string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithTable overrides the target table. Defaults to DefaultTable.
func WithTable(table string) WriterOption {
	return func(w *Writer) {
		if table != "" {
			w.table = table
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{table: DefaultTable}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Table returns the table this writer inserts into.
func (w *Writer) Table() string { return w.table }

// Create validates rec and, if it passes, inserts it through store.
//
// store is the caller's authenticated handle; Create never builds or
// looks up a client itself. Cancellation and deadlines come from ctx.
func (w *Writer) Create(ctx context.Context, store RowStore, rec UserRecord) Result {
	logger := logging.WithFields(ctx, "table", w.table, "user_id", rec.UserID)

	if err := rec.Validate(); err != nil {
		logger.Debug("registration rejected by validation", "error", err)
		return Result{Outcome: OutcomeInvalid, Err: err}
	}

	resp, err := store.Insert(ctx, w.table, rec.Row())
	if err != nil {
		logger.Error("store call failed", "error", err)
		return Result{Outcome: OutcomeTransportFailure, Err: &TransportError{Err: err}}
	}

	if resp.Data != nil {
		logger.Info("user registered", "rows", len(resp.Data))
		return Result{Outcome: OutcomeInserted, Rows: resp.Data}
	}

	if resp.Error != nil {
		logger.Warn("store rejected registration",
			"code", resp.Error.Code,
			"status", resp.Error.Status,
			"error", resp.Error.Message,
		)
		return Result{Outcome: OutcomeRejected, Err: resp.Error}
	}

	// Neither rows nor an error: the store accepted the write but sent
	// nothing back.
	logger.Log(ctx, slog.LevelWarn, "store returned no rows and no error")
	return Result{Outcome: OutcomeInserted, Rows: []Row{}}
}
