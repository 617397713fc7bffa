package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"framebridge/internal/logging"
)

var (
	ErrCommandMissing       = errors.New("command is missing")
	ErrCommandNotRegistered = errors.New("command not registered")
	ErrValidation           = errors.New("validation failed")
)

// CommandFunc handles one command invocation.
type CommandFunc func(ctx context.Context, args Args) (any, error)

type command struct {
	fn     CommandFunc
	params map[string]Param
	order  []string
}

// Invoker is the command-invoker protocol handler.
type Invoker struct {
	logger *slog.Logger

	mu       sync.RWMutex
	commands map[string]*command
}

func New(logger *slog.Logger) *Invoker {
	return &Invoker{
		logger:   logging.NewComponentLogger(logger, "invoker"),
		commands: make(map[string]*command),
	}
}

// Register binds name to fn with the given parameter schema. Registering an
// existing name replaces it.
func (i *Invoker) Register(name string, fn CommandFunc, params ...Param) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("register command: empty name")
	}
	if fn == nil {
		return fmt.Errorf("register command %s: nil handler", name)
	}
	cmd := &command{fn: fn, params: make(map[string]Param, len(params))}
	for _, p := range params {
		if p.name == "" {
			return fmt.Errorf("register command %s: parameter without name", name)
		}
		if _, dup := cmd.params[p.name]; dup {
			return fmt.Errorf("register command %s: duplicate parameter %s", name, p.name)
		}
		cmd.params[p.name] = p
		cmd.order = append(cmd.order, p.name)
	}

	i.mu.Lock()
	_, replaced := i.commands[name]
	i.commands[name] = cmd
	i.mu.Unlock()

	i.logger.Debug("command registered",
		logging.String(logging.FieldCommand, name),
		logging.Strings("params", cmd.order),
		logging.Bool("replaced", replaced),
	)
	return nil
}

// Trigger reads the command name from data["cmd"] and invokes it with the
// remaining keys as keyword arguments.
func (i *Invoker) Trigger(ctx context.Context, data map[string]any) (any, error) {
	name, _ := data["cmd"].(string)
	if strings.TrimSpace(name) == "" {
		return nil, ErrCommandMissing
	}
	kwargs := make(map[string]any, len(data))
	for k, v := range data {
		if k != "cmd" {
			kwargs[k] = v
		}
	}
	return i.Invoke(ctx, name, kwargs)
}

// Invoke runs command name. Structured parameters are coerced and validated;
// other keyword arguments pass through. A Model result is returned as its JSON
// encoding.
func (i *Invoker) Invoke(ctx context.Context, name string, kwargs map[string]any) (any, error) {
	i.mu.RLock()
	cmd, ok := i.commands[name]
	i.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotRegistered, name)
	}

	args := make(Args, len(kwargs))
	for key, value := range kwargs {
		param, declared := cmd.params[key]
		if !declared || param.coerce == nil {
			args[key] = value
			continue
		}
		coerced, err := param.coerce(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: parameter %s: %v", name, ErrValidation, key, err)
		}
		args[key] = coerced
	}
	for _, key := range cmd.order {
		if _, present := args[key]; !present && !cmd.params[key].optional {
			return nil, fmt.Errorf("%s: %w: missing parameter %s", name, ErrValidation, key)
		}
	}

	result, err := cmd.fn(ctx, args)
	if err != nil {
		return nil, err
	}
	if model, ok := result.(Model); ok {
		raw, err := json.Marshal(model)
		if err != nil {
			return nil, fmt.Errorf("%s: encode result: %w", name, err)
		}
		return json.RawMessage(raw), nil
	}
	return result, nil
}

// AvailableCommands returns a copy of the command table as
// command -> parameter -> type name.
func (i *Invoker) AvailableCommands() map[string]map[string]string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]map[string]string, len(i.commands))
	for name, cmd := range i.commands {
		params := make(map[string]string, len(cmd.params))
		for key, p := range cmd.params {
			params[key] = p.typeName
		}
		out[name] = params
	}
	return out
}

// Names lists registered commands in sorted order.
func (i *Invoker) Names() []string {
	i.mu.RLock()
	names := make([]string, 0, len(i.commands))
	for name := range i.commands {
		names = append(names, name)
	}
	i.mu.RUnlock()
	sort.Strings(names)
	return names
}
