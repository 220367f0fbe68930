// Package metadata provides the local key/value slot the client keeps between
// runs. The only value the client persists is the session token (see
// common.TokenKey); contacts themselves are never cached locally.
//
// The SQLite implementation works over dbx.DBTX, so it accepts either a
// *sql.DB or a *sql.Tx. The `metadata` table is created by the embedded goose
// migrations in internal/client/migrations.
package metadata
