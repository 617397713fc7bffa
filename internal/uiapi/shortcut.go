package uiapi

import (
	"context"
	"encoding/json"
	"fmt"

	"framebridge/internal/broker"
)

// Accelerator describes a key combination, for example
// {Modifiers: ["ctrl", "shift"], Key: "KeyP"}.
type Accelerator struct {
	Modifiers []string `json:"modifiers,omitempty"`
	Key       string   `json:"key"`
}

// RegisteredShortcut is one entry of Shortcut.List.
type RegisteredShortcut struct {
	ID          int
	Accelerator string
}

// UnmarshalJSON accepts the [id, accelerator] pairs the UI reports.
func (s *RegisteredShortcut) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("shortcut entry: expected [id, accelerator], got %d items", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.ID); err != nil {
		return fmt.Errorf("shortcut id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Accelerator); err != nil {
		return fmt.Errorf("shortcut accelerator: %w", err)
	}
	return nil
}

// Shortcut wraps the shortcut.* methods. A nil window means the current one.
type Shortcut struct {
	r Requester
}

func NewShortcut(r Requester) *Shortcut { return &Shortcut{r: r} }

// Register installs accel and returns the id the UI assigned to it.
func (s *Shortcut) Register(ctx context.Context, accel Accelerator, window WindowID) (int, error) {
	if accel.Key == "" {
		return 0, fmt.Errorf("shortcut: empty key")
	}
	return call[int](ctx, s.r, "shortcut.register", map[string]any{"shortcut": accel, "window_id": window}, broker.ClassMethod)
}

func (s *Shortcut) Unregister(ctx context.Context, id int, window WindowID) error {
	return exec(ctx, s.r, "shortcut.unregister", map[string]any{"id": id, "window_id": window})
}

func (s *Shortcut) UnregisterAll(ctx context.Context, window WindowID) error {
	return exec(ctx, s.r, "shortcut.unregisterAll", map[string]any{"window_id": window})
}

func (s *Shortcut) List(ctx context.Context, window WindowID) ([]RegisteredShortcut, error) {
	return call[[]RegisteredShortcut](ctx, s.r, "shortcut.list", map[string]any{"window_id": window}, broker.ClassMethod)
}
