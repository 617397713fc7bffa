package invoker

import (
	"encoding/json"
	"fmt"
)

// Model is a structured parameter or result type.
type Model interface {
	Validate() error
}

// Param declares one command parameter.
type Param struct {
	name     string
	typeName string
	optional bool
	coerce   func(value any) (any, error)
}

// Name returns the keyword the parameter binds to.
func (p Param) Name() string { return p.name }

// TypeName describes the parameter type for introspection.
func (p Param) TypeName() string { return p.typeName }

// Optional returns a copy of p that may be omitted by callers.
func (p Param) Optional() Param {
	p.optional = true
	return p
}

// Raw declares a pass-through parameter.
func Raw(name string) Param {
	return Param{name: name, typeName: "raw"}
}

// Struct declares a parameter coerced into T. Callers may supply a T, a *T, a
// JSON object (decoded or raw), or a scalar that is wrapped as {name: value}.
func Struct[T Model](name string) Param {
	var zero T
	return Param{
		name:     name,
		typeName: fmt.Sprintf("%T", zero),
		coerce: func(value any) (any, error) {
			return coerce[T](name, value)
		},
	}
}

func coerce[T Model](name string, value any) (T, error) {
	var out T
	switch v := value.(type) {
	case T:
		out = v
	case *T:
		if v == nil {
			return out, fmt.Errorf("nil %T", v)
		}
		out = *v
	case json.RawMessage:
		if err := json.Unmarshal(v, &out); err != nil {
			return out, err
		}
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, err
		}
	default:
		raw, err := json.Marshal(map[string]any{name: v})
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, err
		}
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// Args holds the coerced keyword arguments of one invocation.
type Args map[string]any

// Arg fetches name from args as T.
func Arg[T any](args Args, name string) (T, error) {
	var zero T
	value, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("argument %s missing", name)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("argument %s: expected %T, got %T", name, zero, value)
	}
	return typed, nil
}
