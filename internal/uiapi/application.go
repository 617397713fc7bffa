package uiapi

import (
	"context"
	"fmt"

	"framebridge/internal/broker"
)

// ActivationPolicy controls how the application appears in the dock (macOS).
type ActivationPolicy string

const (
	PolicyRegular    ActivationPolicy = "regular"
	PolicyAccessory  ActivationPolicy = "accessory"
	PolicyProhibited ActivationPolicy = "prohibited"
)

// Application wraps the extra.* process-level methods.
type Application struct {
	r Requester
}

func NewApplication(r Requester) *Application { return &Application{r: r} }

// ActiveWindowID returns the platform id of the foreground window, or nil.
func (a *Application) ActiveWindowID(ctx context.Context) (*string, error) {
	return call[*string](ctx, a.r, "extra.getActiveWindowId", map[string]any{}, broker.ClassMethod)
}

func (a *Application) FocusByWindowID(ctx context.Context, id string) (bool, error) {
	return call[bool](ctx, a.r, "extra.focusByWindowId", map[string]any{"id_string": id}, broker.ClassMethod)
}

func (a *Application) Hide(ctx context.Context) error {
	return exec(ctx, a.r, "extra.hideApplication", map[string]any{})
}

func (a *Application) Show(ctx context.Context) error {
	return exec(ctx, a.r, "extra.showApplication", map[string]any{})
}

func (a *Application) HideOthers(ctx context.Context) error {
	return exec(ctx, a.r, "extra.hideOtherApplications", map[string]any{})
}

func (a *Application) SetActivationPolicy(ctx context.Context, policy ActivationPolicy) error {
	switch policy {
	case PolicyRegular, PolicyAccessory, PolicyProhibited:
	default:
		return fmt.Errorf("unknown activation policy %q", policy)
	}
	return exec(ctx, a.r, "extra.setActivationPolicy", map[string]any{"policy": policy})
}
