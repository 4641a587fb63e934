// Package browser wraps the headless browser engine behind a small
// capability interface. The rest of the app never talks to the engine
// directly, so it can be swapped out in tests.
package browser

import (
	"context"
	"errors"
	"strings"
)

// ErrDetached is returned when the underlying tab or its context is gone.
var ErrDetached = errors.New("browser tab detached")

// Tab is one controllable browser tab. Implementations are not required
// to be safe for concurrent calls, callers must serialize per tab.
type Tab interface {
	// Capture renders the current viewport as a JPEG image.
	Capture(ctx context.Context) ([]byte, error)

	MouseMove(ctx context.Context, x, y float64) error
	MouseDown(ctx context.Context) error
	MouseUp(ctx context.Context) error
	Click(ctx context.Context, x, y float64) error
	Wheel(ctx context.Context, dx, dy float64) error

	// KeyPress dispatches one key chord, e.g. "Enter" or "Control+Shift+a".
	KeyPress(ctx context.Context, chord string) error
	// TypeText types printable characters into the focused element.
	TypeText(ctx context.Context, text string) error

	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	SetViewport(ctx context.Context, width, height int) error

	Close() error
}

// NormalizeURL prepends the https scheme to scheme-less addresses, so
// clients may send bare hosts like "example.com".
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return u
	}
	if !strings.Contains(u, "://") {
		return "https://" + u
	}
	return u
}
