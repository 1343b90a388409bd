// Package logging constructs the daemon's slog loggers and shared attribute
// helpers.
//
// It supports console and JSON output, optional file targets alongside
// stdout/stderr, and a no-op logger for tests. Components receive their
// logger via NewComponentLogger so every line carries a component attribute
// the console handler renders as a bracketed prefix.
package logging
