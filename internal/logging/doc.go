// Package logging assembles the structured slog loggers used across tmail.
//
// It owns the console and JSON handlers, level parsing, and output routing
// (stderr plus an optional log file), and exposes attribute helpers and
// context-aware constructors so protocol exchanges carry a correlation ID.
// A no-op logger is provided for tests and wiring code that cannot fail.
//
// Credentials must never be passed to these loggers.
package logging
