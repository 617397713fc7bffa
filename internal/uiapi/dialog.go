package uiapi

import (
	"context"

	"framebridge/internal/broker"
)

// MessageLevel selects the icon of a message dialog.
type MessageLevel string

const (
	LevelInfo    MessageLevel = "info"
	LevelWarning MessageLevel = "warning"
	LevelError   MessageLevel = "error"
)

// Dialog wraps the dialog.* methods. Pickers return nil when the user
// cancels.
type Dialog struct {
	r Requester
}

func NewDialog(r Requester) *Dialog { return &Dialog{r: r} }

func (d *Dialog) ShowMessage(ctx context.Context, title, content string, level MessageLevel) error {
	if level == "" {
		level = LevelInfo
	}
	return exec(ctx, d.r, "dialog.showMessage", map[string]any{"title": title, "content": content, "level": level})
}

func (d *Dialog) PickFile(ctx context.Context, filters []string, startDir string) (*string, error) {
	return call[*string](ctx, d.r, "dialog.pickFile", pickerArgs(filters, startDir), broker.ClassMethod)
}

func (d *Dialog) PickFiles(ctx context.Context, filters []string, startDir string) ([]string, error) {
	return call[[]string](ctx, d.r, "dialog.pickFiles", pickerArgs(filters, startDir), broker.ClassMethod)
}

func (d *Dialog) PickDir(ctx context.Context, startDir string) (*string, error) {
	return call[*string](ctx, d.r, "dialog.pickDir", map[string]any{"start_dir": optional(startDir)}, broker.ClassMethod)
}

func (d *Dialog) PickDirs(ctx context.Context, startDir string) ([]string, error) {
	return call[[]string](ctx, d.r, "dialog.pickDirs", map[string]any{"start_dir": optional(startDir)}, broker.ClassMethod)
}

func (d *Dialog) SaveFile(ctx context.Context, filters []string, startDir string) (*string, error) {
	return call[*string](ctx, d.r, "dialog.saveFile", pickerArgs(filters, startDir), broker.ClassMethod)
}

func pickerArgs(filters []string, startDir string) map[string]any {
	args := map[string]any{"filters": nil, "start_dir": optional(startDir)}
	if len(filters) > 0 {
		args["filters"] = filters
	}
	return args
}

func optional(value string) any {
	if value == "" {
		return nil
	}
	return value
}
