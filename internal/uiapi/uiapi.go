package uiapi

import (
	"context"
	"encoding/json"
	"fmt"

	"framebridge/internal/broker"
)

// Requester sends one request to the UI and waits for its result.
type Requester interface {
	Send(ctx context.Context, method string, args any, class broker.Class) (json.RawMessage, error)
}

// Size is a window size in logical pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a window or cursor position in logical pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WindowID selects a window; nil means the current one.
type WindowID *int

// ID returns a WindowID for id.
func ID(id int) WindowID { return &id }

func call[T any](ctx context.Context, r Requester, method string, args map[string]any, class broker.Class) (T, error) {
	var out T
	raw, err := r.Send(ctx, method, args, class)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%s: decode result: %w", method, err)
	}
	return out, nil
}

func exec(ctx context.Context, r Requester, method string, args map[string]any) error {
	_, err := r.Send(ctx, method, args, broker.ClassMethod)
	return err
}
