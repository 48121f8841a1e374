package httpserver

import "errors"

var (
	// ErrStart reports a listener or startup failure.
	ErrStart = errors.New("failed to start HTTP server")
	// ErrShutdown reports a failed graceful drain.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
