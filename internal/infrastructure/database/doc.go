// Package database provides SQLite persistence for outletd.
//
// The database holds the outlet's persistent attribute value and the
// pairing registry. It is opened once at startup, migrated from embedded
// SQL files, and shared by the attribute and pairing packages.
//
// SQLite is configured for a single writer (the coordinator's dispatch
// goroutine is the only mutation path at runtime) with WAL mode for
// concurrent reads.
package database
