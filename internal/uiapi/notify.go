package uiapi

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notification is a desktop notification. Zero fields are sent as null and
// left to the platform default.
type Notification struct {
	Summary   string
	Body      string
	AppID     string
	AppName   string
	Icon      string
	AutoIcon  *bool
	ImagePath string
	SoundName string
	Subtitle  string
	Timeout   time.Duration
	ID        *int
	// Action is an identifier and label pair.
	Action *[2]string
}

// Notifier sends controlcenter.notification requests.
type Notifier struct {
	r Requester
}

func NewNotifier(r Requester) *Notifier { return &Notifier{r: r} }

func (n *Notifier) Notify(ctx context.Context, note Notification) error {
	if strings.TrimSpace(note.Summary) == "" {
		return fmt.Errorf("notification: empty summary")
	}
	var timeout any
	if note.Timeout > 0 {
		timeout = note.Timeout.Milliseconds()
	}
	var action any
	if note.Action != nil {
		action = []string{note.Action[0], note.Action[1]}
	}
	var id any
	if note.ID != nil {
		id = *note.ID
	}
	var autoIcon any
	if note.AutoIcon != nil {
		autoIcon = *note.AutoIcon
	}
	return exec(ctx, n.r, "controlcenter.notification", map[string]any{
		"summary":    note.Summary,
		"body":       optional(note.Body),
		"app_id":     optional(note.AppID),
		"appname":    optional(note.AppName),
		"icon":       optional(note.Icon),
		"auto_icon":  autoIcon,
		"image_path": optional(note.ImagePath),
		"sound_name": optional(note.SoundName),
		"subtitle":   optional(note.Subtitle),
		"timeout":    timeout,
		"id":         id,
		"action":     action,
	})
}
