// Package core validates user registrations and writes them to a row store.
//
// The package has no HTTP or database dependencies of its own. Callers
// hand [Writer.Create] an authenticated [RowStore] and a candidate
// [UserRecord]; the writer validates, issues one insert against the User
// table and reports the outcome as a [Result].
//
// # Flow
//
//  1. [Validate] checks the record against the schema in UserRecord's
//     struct tags. Failures return [OutcomeInvalid] before any I/O.
//  2. One [RowStore.Insert] call writes the row and asks for it back.
//  3. Rows from the store yield [OutcomeInserted]; a [StoreError] from
//     the store yields [OutcomeRejected] carrying that exact value; a
//     failed call yields [OutcomeTransportFailure] with a [TransportError]
//     whose message is the original one.
//
// # Error Handling
//
// [MapError] turns any of these errors into a [UserMessage] with a
// support code (VAL, DB, AUTH, REG, RATE ranges; ERR000 as fallback).
package core
