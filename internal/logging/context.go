package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "task_failed").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldTask is the supervisor task name.
	FieldTask = "task"
	// FieldRequestID is the correlation ID of a broker request.
	FieldRequestID = "request_id"
	// FieldMethod is the UI method a broker request targets.
	FieldMethod = "method"
	// FieldProtocol is the protocol name of an inbound invocation.
	FieldProtocol = "protocol"
	// FieldCommand is the command invoker command name.
	FieldCommand = "command"
	// FieldConnectionID identifies a UI channel connection.
	FieldConnectionID = "connection_id"
	// FieldEvent is a channel event name.
	FieldEvent = "event"
)

type contextKey string

const (
	taskKey       contextKey = "task"
	connectionKey contextKey = "connection_id"
)

// WithTask annotates ctx with the supervisor task name.
func WithTask(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, taskKey, name)
}

// TaskFromContext returns the supervisor task name if present.
func TaskFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithConnection annotates ctx with the UI channel connection ID.
func WithConnection(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, connectionKey, id)
}

// ConnectionFromContext returns the UI channel connection ID if present.
func ConnectionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(connectionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if task, ok := TaskFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTask, task))
	}
	if id, ok := ConnectionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldConnectionID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
