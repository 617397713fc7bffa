package uiapi

import (
	"context"

	"framebridge/internal/broker"
)

// MonitorInfo describes one display as reported by the UI.
type MonitorInfo struct {
	Name        string   `json:"name"`
	Size        Size     `json:"size"`
	Position    Position `json:"position"`
	ScaleFactor float64  `json:"scaleFactor"`
}

// Monitor wraps the monitor.* methods. Lookups that find no display return
// nil.
type Monitor struct {
	r Requester
}

func NewMonitor(r Requester) *Monitor { return &Monitor{r: r} }

func (m *Monitor) List(ctx context.Context) ([]MonitorInfo, error) {
	return call[[]MonitorInfo](ctx, m.r, "monitor.list", map[string]any{}, broker.ClassMethod)
}

func (m *Monitor) Current(ctx context.Context) (*MonitorInfo, error) {
	return call[*MonitorInfo](ctx, m.r, "monitor.current", map[string]any{}, broker.ClassMethod)
}

func (m *Monitor) Primary(ctx context.Context) (*MonitorInfo, error) {
	return call[*MonitorInfo](ctx, m.r, "monitor.primary", map[string]any{}, broker.ClassMethod)
}

func (m *Monitor) FromPoint(ctx context.Context, p Position) (*MonitorInfo, error) {
	return call[*MonitorInfo](ctx, m.r, "monitor.fromPoint", map[string]any{"x": p.X, "y": p.Y}, broker.ClassMethod)
}
