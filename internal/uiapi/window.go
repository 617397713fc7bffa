package uiapi

import (
	"context"
	"encoding/json"

	"framebridge/internal/broker"
)

// Window wraps the window.* methods.
type Window struct {
	r Requester
}

func NewWindow(r Requester) *Window { return &Window{r: r} }

func (w *Window) query(ctx context.Context, method string, id WindowID) (json.RawMessage, error) {
	return call[json.RawMessage](ctx, w.r, method, map[string]any{"id": id}, broker.ClassState)
}

// Current returns the descriptor of the focused window.
func (w *Window) Current(ctx context.Context) (json.RawMessage, error) {
	return call[json.RawMessage](ctx, w.r, "window.current", map[string]any{}, broker.ClassState)
}

// List returns the descriptors of every open window.
func (w *Window) List(ctx context.Context) (json.RawMessage, error) {
	return call[json.RawMessage](ctx, w.r, "window.list", map[string]any{}, broker.ClassState)
}

func (w *Window) Close(ctx context.Context, id WindowID) error {
	return exec(ctx, w.r, "window.close", map[string]any{"id": id})
}

func (w *Window) SendMessage(ctx context.Context, message string, id int) error {
	return exec(ctx, w.r, "window.sendMessage", map[string]any{"message": message, "id": id})
}

func (w *Window) Title(ctx context.Context, id WindowID) (string, error) {
	return call[string](ctx, w.r, "window.title", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetTitle(ctx context.Context, title string, id WindowID) error {
	return exec(ctx, w.r, "window.setTitle", map[string]any{"title": title, "id": id})
}

func (w *Window) IsVisible(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isVisible", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetVisible(ctx context.Context, visible bool, id WindowID) error {
	return exec(ctx, w.r, "window.setVisible", map[string]any{"visible": visible, "id": id})
}

func (w *Window) IsFocused(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isFocused", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetFocus(ctx context.Context, id WindowID) error {
	return exec(ctx, w.r, "window.setFocus", map[string]any{"id": id})
}

func (w *Window) ScaleFactor(ctx context.Context, id WindowID) (float64, error) {
	return call[float64](ctx, w.r, "window.scaleFactor", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) InnerSize(ctx context.Context, id WindowID) (Size, error) {
	return call[Size](ctx, w.r, "window.innerSize", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetInnerSize(ctx context.Context, size Size, id WindowID) error {
	return exec(ctx, w.r, "window.setInnerSize", map[string]any{"size": size, "id": id})
}

func (w *Window) OuterSize(ctx context.Context, id WindowID) (Size, error) {
	return call[Size](ctx, w.r, "window.outerSize", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetMinInnerSize(ctx context.Context, size Size, id WindowID) error {
	return exec(ctx, w.r, "window.setMinInnerSize", map[string]any{"size": size, "id": id})
}

func (w *Window) SetMaxInnerSize(ctx context.Context, size Size, id WindowID) error {
	return exec(ctx, w.r, "window.setMaxInnerSize", map[string]any{"size": size, "id": id})
}

func (w *Window) InnerPosition(ctx context.Context, id WindowID) (Position, error) {
	return call[Position](ctx, w.r, "window.innerPosition", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) OuterPosition(ctx context.Context, id WindowID) (Position, error) {
	return call[Position](ctx, w.r, "window.outerPosition", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetOuterPosition(ctx context.Context, pos Position, id WindowID) error {
	return exec(ctx, w.r, "window.setOuterPosition", map[string]any{"position": pos, "id": id})
}

func (w *Window) IsResizable(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isResizable", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetResizable(ctx context.Context, resizable bool, id WindowID) error {
	return exec(ctx, w.r, "window.setResizable", map[string]any{"resizable": resizable, "id": id})
}

func (w *Window) IsMinimized(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isMinimized", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetMinimized(ctx context.Context, minimized bool, id WindowID) error {
	return exec(ctx, w.r, "window.setMinimized", map[string]any{"minimized": minimized, "id": id})
}

func (w *Window) IsMaximized(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isMaximized", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) SetMaximized(ctx context.Context, maximized bool, id WindowID) error {
	return exec(ctx, w.r, "window.setMaximized", map[string]any{"maximized": maximized, "id": id})
}

func (w *Window) Fullscreen(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.fullscreen", map[string]any{"id": id}, broker.ClassState)
}

// SetFullscreen toggles fullscreen, optionally on the named monitor.
func (w *Window) SetFullscreen(ctx context.Context, fullscreen bool, monitor string, id WindowID) error {
	args := map[string]any{"is_fullscreen": fullscreen, "monitor_name": nil, "id": id}
	if monitor != "" {
		args["monitor_name"] = monitor
	}
	return exec(ctx, w.r, "window.setFullscreen", args)
}

func (w *Window) SetAlwaysOnTop(ctx context.Context, onTop bool, id WindowID) error {
	return exec(ctx, w.r, "window.setAlwaysOnTop", map[string]any{"always_on_top": onTop, "id": id})
}

func (w *Window) SetMenu(ctx context.Context, options any, id WindowID) error {
	return exec(ctx, w.r, "window.setMenu", map[string]any{"options": options, "id": id})
}

func (w *Window) IsMenuVisible(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "window.isMenuVisible", map[string]any{"id": id}, broker.ClassState)
}

func (w *Window) CursorPosition(ctx context.Context, id WindowID) (Position, error) {
	return call[Position](ctx, w.r, "window.cursorPosition", map[string]any{"id": id}, broker.ClassState)
}

// Theme returns the UI theme name, e.g. "light" or "dark".
func (w *Window) Theme(ctx context.Context, id WindowID) (string, error) {
	return call[string](ctx, w.r, "window.theme", map[string]any{"id": id}, broker.ClassState)
}

// BlockCloseRequested makes the UI ignore close requests for the window.
func (w *Window) BlockCloseRequested(ctx context.Context, blocked bool, id WindowID) error {
	return exec(ctx, w.r, "window.blockCloseRequested", map[string]any{"blocked": blocked, "id": id})
}
