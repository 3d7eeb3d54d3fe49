// Package logging defines the structured logger used by the store, the
// importer and the CLI. The default implementation wraps log/slog.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs:
//
//	log.Warn(ctx, "post not found", "op", "delete_post", "id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but recovered conditions such as skipped rows.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failed statements that are returned to the caller.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
