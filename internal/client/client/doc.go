// Package client contains client-side building blocks for talking to the
// contact record store.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Register,
//     Login, CurrentUser, and contact List/Get/Create/Update/Delete/
//     ToggleFavorite.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that attaches the
//     session's bearer token, tags each call with an X-Request-Id, records
//     Prometheus metrics, and maps responses to error kinds.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose
//     migrations. The database only holds the session token slot.
//
// # Error Handling
//
// Failures are returned as *APIError values carrying the operation, the HTTP
// status, and the server's detail message. Each one matches exactly one of
// the kinds in internal/common with errors.Is: ErrUnauthenticated, ErrInvalid,
// ErrConflict, ErrNotFound, ErrNetwork, ErrUnknown. A protected call made
// without a token fails with ErrUnauthenticated before any network I/O.
//
// The client never retries; callers decide what to do with a failure.
package client
