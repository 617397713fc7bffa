// Package protocol maps protocol names multiplexed over the bridge channel to
// the handlers that serve them.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrProtocolNotFound reports a dispatch to an unregistered protocol.
var ErrProtocolNotFound = errors.New("protocol not found")

// Handler serves one protocol.
type Handler interface {
	Trigger(ctx context.Context, data map[string]any) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, data map[string]any) (any, error)

func (f HandlerFunc) Trigger(ctx context.Context, data map[string]any) (any, error) {
	return f(ctx, data)
}

// Result carries a handler's value tagged with the protocol that produced it.
type Result struct {
	Protocol string
	Value    any
}

// Registry is a concurrency-safe protocol table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to handler, replacing any previous binding.
func (r *Registry) Register(name string, handler Handler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("register protocol: empty name")
	}
	if handler == nil {
		return fmt.Errorf("register protocol %s: nil handler", name)
	}
	r.mu.Lock()
	r.handlers[name] = handler
	r.mu.Unlock()
	return nil
}

// Dispatch runs the handler registered for name.
func (r *Registry) Dispatch(ctx context.Context, name string, data map[string]any) (Result, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return Result{Protocol: name}, fmt.Errorf("%w: %s", ErrProtocolNotFound, name)
	}
	if data == nil {
		data = map[string]any{}
	}
	value, err := handler.Trigger(ctx, data)
	if err != nil {
		return Result{Protocol: name}, err
	}
	return Result{Protocol: name, Value: value}, nil
}

// Names lists registered protocols in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
