package httpserver

import "log/slog"

// newNoopLogger returns a logger that discards everything, used when no
// logger option is supplied.
func newNoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
