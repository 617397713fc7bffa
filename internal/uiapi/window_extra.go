package uiapi

import (
	"context"

	"framebridge/internal/broker"
)

// WindowExtra wraps the platform specific windowExtra.* methods. The UI
// answers with an error on platforms that lack a method.
type WindowExtra struct {
	r Requester
}

func NewWindowExtra(r Requester) *WindowExtra { return &WindowExtra{r: r} }

func (w *WindowExtra) SetEnabled(ctx context.Context, enabled bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setEnable", map[string]any{"enabled": enabled, "id": id})
}

func (w *WindowExtra) SetTaskbarIcon(ctx context.Context, icon string, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setTaskbarIcon", map[string]any{"taskbar_icon": icon, "id": id})
}

func (w *WindowExtra) Theme(ctx context.Context, id WindowID) (string, error) {
	return call[string](ctx, w.r, "windowExtra.theme", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) ResetDeadKeys(ctx context.Context, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.resetDeadKeys", map[string]any{"id": id})
}

func (w *WindowExtra) BeginResizeDrag(ctx context.Context, edge, button, x, y int, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.beginResizeDrag", map[string]any{"edge": edge, "button": button, "x": x, "y": y, "id": id})
}

func (w *WindowExtra) SetSkipTaskbar(ctx context.Context, skip bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setSkipTaskbar", map[string]any{"skip": skip, "id": id})
}

func (w *WindowExtra) SetUndecoratedShadow(ctx context.Context, shadow bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setUndecoratedShadow", map[string]any{"shadow": shadow, "id": id})
}

func (w *WindowExtra) SimpleFullscreen(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "windowExtra.simpleFullscreen", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) SetSimpleFullscreen(ctx context.Context, fullscreen bool, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "windowExtra.setSimpleFullscreen", map[string]any{"fullscreen": fullscreen, "id": id}, broker.ClassMethod)
}

func (w *WindowExtra) HasShadow(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "windowExtra.hasShadow", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) SetHasShadow(ctx context.Context, shadow bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setHasShadow", map[string]any{"has_shadow": shadow, "id": id})
}

func (w *WindowExtra) IsDocumentEdited(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "windowExtra.isDocumentEdited", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) SetDocumentEdited(ctx context.Context, edited bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setIsDocumentEdited", map[string]any{"edited": edited, "id": id})
}

func (w *WindowExtra) AllowsAutomaticTabbing(ctx context.Context, id WindowID) (bool, error) {
	return call[bool](ctx, w.r, "windowExtra.allowsAutomaticWindowTabbing", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) SetAllowsAutomaticTabbing(ctx context.Context, enabled bool, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setAllowsAutomaticWindowTabbing", map[string]any{"enabled": enabled, "id": id})
}

func (w *WindowExtra) TabbingIdentifier(ctx context.Context, id WindowID) (string, error) {
	return call[string](ctx, w.r, "windowExtra.tabbingIdentifier", map[string]any{"id": id}, broker.ClassMethod)
}

func (w *WindowExtra) SetTabbingIdentifier(ctx context.Context, identifier string, id WindowID) error {
	return exec(ctx, w.r, "windowExtra.setTabbingIdentifier", map[string]any{"identifier": identifier, "id": id})
}
