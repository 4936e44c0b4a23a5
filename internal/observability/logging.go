// Package observability carries per-build logging context.
package observability

import (
	"context"
	"log/slog"
)

// LogContext is the build context attached to every log line of one run.
type LogContext struct {
	BuildID string
	Kind    string
	Stage   string
	Trigger string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithKind adds the rebuild kind to the context.
func WithKind(ctx context.Context, kind string) context.Context {
	lc := extractLogContext(ctx)
	lc.Kind = kind
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTrigger adds the path that triggered the run.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	lc := extractLogContext(ctx)
	lc.Trigger = trigger
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the log context carried by ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func contextArgs(ctx context.Context, args []any) []any {
	lc := extractLogContext(ctx)
	out := make([]any, 0, len(args)+8)
	if lc.BuildID != "" {
		out = append(out, "build.id", lc.BuildID)
	}
	if lc.Kind != "" {
		out = append(out, "kind", lc.Kind)
	}
	if lc.Stage != "" {
		out = append(out, "stage", lc.Stage)
	}
	if lc.Trigger != "" {
		out = append(out, "trigger", lc.Trigger)
	}
	return append(out, args...)
}

// InfoContext logs at info level with the build context prepended.
func InfoContext(ctx context.Context, msg string, args ...any) {
	slog.InfoContext(ctx, msg, contextArgs(ctx, args)...)
}

// WarnContext logs at warn level with the build context prepended.
func WarnContext(ctx context.Context, msg string, args ...any) {
	slog.WarnContext(ctx, msg, contextArgs(ctx, args)...)
}

// ErrorContext logs at error level with the build context prepended.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	slog.ErrorContext(ctx, msg, contextArgs(ctx, args)...)
}

// DebugContext logs at debug level with the build context prepended.
func DebugContext(ctx context.Context, msg string, args ...any) {
	slog.DebugContext(ctx, msg, contextArgs(ctx, args)...)
}
