// Package logging provides structured logging for outletd.
//
// It wraps log/slog with the service's default fields and config-driven
// handler selection. Packages deeper in the tree do not import this package
// directly; they declare a minimal local Logger interface and receive a
// *logging.Logger (or anything slog-shaped) through SetLogger.
package logging
