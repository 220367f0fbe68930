// Package cli provides the interactive contactbook command-line client.
//
// It wires configuration, the token database, the remote gateway, the
// contact store and the services behind a REPL. Each input line is parsed by
// a cobra command tree built for that line.
//
// Key features:
//   - Register / Login / Logout, with the token kept across runs
//   - List with search, favorite and tag filters; list tags in use
//   - Show, add, edit, delete and favorite contacts
//   - Reload the list and show remote call statistics
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and newRootCommand for details.
package cli
