package uiapi

import (
	"context"
	"encoding/json"

	"framebridge/internal/broker"
)

// Webview wraps the webview.* methods. Every call, including reads, uses the
// method class.
type Webview struct {
	r Requester
}

func NewWebview(r Requester) *Webview { return &Webview{r: r} }

// Bounds is a webview rectangle in physical pixels.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Color is an RGBA background colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

func (v *Webview) get(ctx context.Context, method string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	return call[json.RawMessage](ctx, v.r, method, args, broker.ClassMethod)
}

// EvaluateScript runs code in the page and returns whatever the UI reports.
func (v *Webview) EvaluateScript(ctx context.Context, code string) (json.RawMessage, error) {
	return v.get(ctx, "webview.evaluateScript", map[string]any{"code": code})
}

func (v *Webview) LoadURL(ctx context.Context, url string) error {
	return exec(ctx, v.r, "webview.loadUrl", map[string]any{"url": url})
}

// LoadURLWithHeaders loads url sending headers with the request. A nil map
// sends no extra headers.
func (v *Webview) LoadURLWithHeaders(ctx context.Context, url string, headers map[string]string) error {
	var h any
	if len(headers) > 0 {
		h = headers
	}
	return exec(ctx, v.r, "webview.loadUrlWithHeaders", map[string]any{"url": url, "headers_json": h})
}

func (v *Webview) LoadHTML(ctx context.Context, html string) error {
	return exec(ctx, v.r, "webview.loadHtml", map[string]any{"code": html})
}

func (v *Webview) Reload(ctx context.Context) error {
	return exec(ctx, v.r, "webview.reload", map[string]any{})
}

func (v *Webview) Print(ctx context.Context) error {
	return exec(ctx, v.r, "webview.print", map[string]any{})
}

func (v *Webview) Focus(ctx context.Context) error {
	return exec(ctx, v.r, "webview.focus", map[string]any{})
}

func (v *Webview) FocusParent(ctx context.Context) error {
	return exec(ctx, v.r, "webview.focusParent", map[string]any{})
}

func (v *Webview) Zoom(ctx context.Context, scale float64) error {
	return exec(ctx, v.r, "webview.zoom", map[string]any{"scale": scale})
}

func (v *Webview) SetVisible(ctx context.Context, visible bool) error {
	return exec(ctx, v.r, "webview.visible", map[string]any{"visible": visible})
}

func (v *Webview) URL(ctx context.Context) (string, error) {
	return call[string](ctx, v.r, "webview.url", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) BaseURL(ctx context.Context) (string, error) {
	return call[string](ctx, v.r, "webview.baseUrl", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) BaseFileSystemURL(ctx context.Context) (string, error) {
	return call[string](ctx, v.r, "webview.baseFileSystemUrl", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) ID(ctx context.Context) (string, error) {
	return call[string](ctx, v.r, "webview.webviewId", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) IsDevtoolsOpen(ctx context.Context) (bool, error) {
	return call[bool](ctx, v.r, "webview.isDevtoolsOpen", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) OpenDevtools(ctx context.Context) error {
	return exec(ctx, v.r, "webview.openDevtools", map[string]any{})
}

func (v *Webview) CloseDevtools(ctx context.Context) error {
	return exec(ctx, v.r, "webview.closeDevtools", map[string]any{})
}

func (v *Webview) Bounds(ctx context.Context) (Bounds, error) {
	return call[Bounds](ctx, v.r, "webview.bounds", map[string]any{}, broker.ClassMethod)
}

func (v *Webview) SetBounds(ctx context.Context, b Bounds) error {
	return exec(ctx, v.r, "webview.setBounds", map[string]any{"x": b.X, "y": b.Y, "width": b.Width, "height": b.Height})
}

func (v *Webview) SetBackgroundColor(ctx context.Context, c Color) error {
	return exec(ctx, v.r, "webview.setBackgroundColor", map[string]any{"r": c.R, "g": c.G, "b": c.B, "a": c.A})
}

// SetTheme switches the webview between dark (true) and light.
func (v *Webview) SetTheme(ctx context.Context, dark bool) error {
	return exec(ctx, v.r, "webview.setTheme", map[string]any{"theme": dark})
}

func (v *Webview) SetMemoryUsageLevel(ctx context.Context, level string) error {
	return exec(ctx, v.r, "webview.setMemoryUsageLevel", map[string]any{"level": level})
}

func (v *Webview) Reparent(ctx context.Context, hwnd int64) error {
	return exec(ctx, v.r, "webview.reparent", map[string]any{"hwnd": hwnd})
}

func (v *Webview) ClearAllBrowsingData(ctx context.Context) error {
	return exec(ctx, v.r, "webview.clearAllBrowsingData", map[string]any{})
}

// Cookies returns every cookie known to the webview, as the UI encodes them.
func (v *Webview) Cookies(ctx context.Context) (json.RawMessage, error) {
	return v.get(ctx, "webview.cookies", nil)
}

func (v *Webview) CookiesForURL(ctx context.Context, url string) (json.RawMessage, error) {
	return v.get(ctx, "webview.cookiesForUrl", map[string]any{"url": url})
}
