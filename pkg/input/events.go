package input

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Client control messages. One envelope type field selects the variant;
// the remaining fields belong to that variant only.
const (
	TypeMouse      = "mouse"
	TypeKeyboard   = "keyboard"
	TypeScroll     = "scroll"
	TypeNavigation = "navigation"
	TypeResize     = "resize"
)

// Mouse event kinds as reported by the client DOM.
const (
	MouseDown = "mousedown"
	MouseUp   = "mouseup"
	MouseMove = "mousemove"
	DblClick  = "dblclick"
)

const (
	KeyDown = "keydown"
	KeyUp   = "keyup"
)

var ErrBadEvent = errors.New("malformed input event")

// Event is the decoded union of all control message variants.
type Event struct {
	Type      string `json:"type"`
	EventType string `json:"eventType,omitempty"`

	// mouse
	X            float64 `json:"x,omitempty"`
	Y            float64 `json:"y,omitempty"`
	IsDblClick   bool    `json:"isDoubleClick,omitempty"`

	// keyboard
	Key      string `json:"key,omitempty"`
	Code     string `json:"code,omitempty"`
	ShiftKey bool   `json:"shiftKey,omitempty"`
	CtrlKey  bool   `json:"ctrlKey,omitempty"`
	AltKey   bool   `json:"altKey,omitempty"`
	MetaKey  bool   `json:"metaKey,omitempty"`

	// scroll
	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`

	// navigation
	URL string `json:"url,omitempty"`

	// resize
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Decode parses one raw control message.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("%w: no type", ErrBadEvent)
	}
	return ev, nil
}
