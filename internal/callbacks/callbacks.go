// Package callbacks stores UI-bound callbacks (menu items and similar) under
// opaque tokens and fires them when the UI reports a trigger.
//
// Registrations are never consumed by a trigger; the same token may fire for
// as long as the owning menu or window exists. Unknown or malformed tokens are
// ignored.
package callbacks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"framebridge/internal/logging"
)

// ErrNilCallback is returned by Register when no callback is given.
var ErrNilCallback = errors.New("nil callback")

// Callback is invoked with its bound arguments merged with trigger extras.
type Callback func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

type entry struct {
	cb     Callback
	args   []any
	kwargs map[string]any
}

// Registry is the menu protocol handler.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logging.NewComponentLogger(logger, "callbacks"),
		entries: make(map[string]entry),
	}
}

// Register stores cb with bound arguments and returns its token.
func (r *Registry) Register(cb Callback, args []any, kwargs map[string]any) (string, error) {
	if cb == nil {
		return "", ErrNilCallback
	}
	token := uuid.NewString()
	bound := entry{cb: cb, args: append([]any(nil), args...), kwargs: make(map[string]any, len(kwargs))}
	for k, v := range kwargs {
		bound.kwargs[k] = v
	}
	r.mu.Lock()
	r.entries[token] = bound
	r.mu.Unlock()
	return token, nil
}

// Unregister drops token when its owner goes away.
func (r *Registry) Unregister(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		return false
	}
	delete(r.entries, token)
	return true
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Trigger fires the callback named by command_id, read from data["payload"]
// when present and from data otherwise. Positional extras come from
// extra_args, keyword extras from extra_kwargs.
func (r *Registry) Trigger(ctx context.Context, data map[string]any) (any, error) {
	payload := data
	if nested, ok := data["payload"].(map[string]any); ok {
		payload = nested
	}

	raw, _ := payload["command_id"].(string)
	if raw == "" {
		r.logger.Debug("menu trigger without command_id ignored")
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		r.logger.Debug("menu trigger with malformed command_id ignored", logging.String("command_id", raw))
		return nil, nil
	}
	token := id.String()

	r.mu.RLock()
	bound, ok := r.entries[token]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("menu trigger for unknown command_id ignored", logging.String("command_id", token))
		return nil, nil
	}

	args := append([]any(nil), bound.args...)
	if extra, ok := payload["extra_args"].([]any); ok {
		args = append(args, extra...)
	}
	kwargs := make(map[string]any, len(bound.kwargs))
	for k, v := range bound.kwargs {
		kwargs[k] = v
	}
	if extra, ok := payload["extra_kwargs"].(map[string]any); ok {
		for k, v := range extra {
			kwargs[k] = v
		}
	}

	result, err := bound.cb(ctx, args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("menu callback %s: %w", token, err)
	}
	return result, nil
}
