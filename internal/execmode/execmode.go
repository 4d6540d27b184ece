// Package execmode tags a request context with the storage execution mode
// its route group was mounted under.
package execmode

import "context"

// Mode selects how storage I/O waits are expressed for a request.
type Mode string

const (
	// Blocking runs statements over the pooled database/sql engine; the
	// request holds its connection for the duration of each statement.
	Blocking Mode = "blocking"
	// Suspending runs statements over the native pgx engine; every
	// statement, commit and rollback is a context-aware yield point.
	Suspending Mode = "suspending"
)

type modeKey struct{}

// WithMode stores the execution mode in the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// FromContext returns the execution mode from context. Requests that did not
// pass through a mode-tagged route default to Blocking.
func FromContext(ctx context.Context) Mode {
	if ctx == nil {
		return Blocking
	}
	if mode, ok := ctx.Value(modeKey{}).(Mode); ok {
		return mode
	}
	return Blocking
}
