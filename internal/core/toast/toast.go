// Package toast implements the single-slot transient notification engine used
// by every screen to report outcomes to the user.
package toast

import (
	"fmt"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return true
	}
	return false
}

// Position is where the notification is placed on screen.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionCenter Position = "center"
)

// IsValid reports whether p is a known position.
func (p Position) IsValid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionCenter:
		return true
	}
	return false
}

// Theme selects the light or dark toast surface.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// IsValid reports whether t is a known theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// SwipeDirection is the direction of a dismiss gesture.
type SwipeDirection string

const (
	SwipeUp    SwipeDirection = "up"
	SwipeDown  SwipeDirection = "down"
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
)

const (
	DefaultDuration = 3 * time.Second
	DefaultWidth    = 48
)

// Config holds the process-wide defaults applied to each Show call.
type Config struct {
	Theme           Theme
	Position        Position
	Duration        time.Duration
	Width           int
	ShowCloseIcon   bool
	ShowProgressBar bool
}

// DefaultConfig returns the built-in toast defaults.
func DefaultConfig() Config {
	return Config{
		Theme:           ThemeDark,
		Position:        PositionTop,
		Duration:        DefaultDuration,
		Width:           DefaultWidth,
		ShowCloseIcon:   true,
		ShowProgressBar: true,
	}
}

// ConfigPatch is a partial Config. Nil fields are left unchanged by Configure.
type ConfigPatch struct {
	Theme           *Theme
	Position        *Position
	Duration        *time.Duration
	Width           *int
	ShowCloseIcon   *bool
	ShowProgressBar *bool
}

// apply merges the patch into c. Invalid values are ignored.
func (p ConfigPatch) apply(c Config) Config {
	if p.Theme != nil && p.Theme.IsValid() {
		c.Theme = *p.Theme
	}
	if p.Position != nil && p.Position.IsValid() {
		c.Position = *p.Position
	}
	if p.Duration != nil && *p.Duration > 0 {
		c.Duration = *p.Duration
	}
	if p.Width != nil && *p.Width > 0 {
		c.Width = *p.Width
	}
	if p.ShowCloseIcon != nil {
		c.ShowCloseIcon = *p.ShowCloseIcon
	}
	if p.ShowProgressBar != nil {
		c.ShowProgressBar = *p.ShowProgressBar
	}
	return c
}

// Notification is a single transient message. Presentation settings are
// captured from Config when the notification is shown, so a later Configure
// call does not change a notification that is already visible.
type Notification struct {
	ID              uint64
	Message         string
	Kind            Kind
	Position        Position
	Duration        time.Duration
	ShownAt         time.Time
	Theme           Theme
	Width           int
	ShowCloseIcon   bool
	ShowProgressBar bool
}

// Announcement is the payload exposed to assistive tooling for the visible
// notification.
type Announcement struct {
	Role  string
	Label string
}

func announce(n Notification) Announcement {
	return Announcement{
		Role:  "alert",
		Label: fmt.Sprintf("%s notification: %s", n.Kind, n.Message),
	}
}

// ShowOption customizes a single Show call.
type ShowOption func(*showOptions)

type showOptions struct {
	position Position
	duration time.Duration
}

// WithPosition overrides the configured default position.
func WithPosition(p Position) ShowOption {
	return func(o *showOptions) { o.position = p }
}

// WithDuration overrides the configured default duration. Non-positive
// values fall back to the default.
func WithDuration(d time.Duration) ShowOption {
	return func(o *showOptions) { o.duration = d }
}
