// Package input converts client-reported pointer, keyboard, scroll,
// navigation and resize events into synthetic browser input.
package input

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/session"
)

// ErrDispatch marks a failed dispatch into the browser tab. The event
// is dropped and the session keeps going.
var ErrDispatch = errors.New("input dispatch failed")

// keys replayed as a chord press instead of typed text
var specialKeys = map[string]string{
	"Backspace":  "Backspace",
	"Enter":      "Enter",
	"Tab":        "Tab",
	"Escape":     "Escape",
	"ArrowLeft":  "ArrowLeft",
	"ArrowRight": "ArrowRight",
	"ArrowUp":    "ArrowUp",
	"ArrowDown":  "ArrowDown",
	"Delete":     "Delete",
	"Home":       "Home",
	"End":        "End",
	"PageUp":     "PageUp",
	"PageDown":   "PageDown",
}

// delay between the two clicks of a synthetic double click
const dblClickGap = 100 * time.Millisecond

// Translator applies events to one session's tab, tracking the pressed
// mouse button across events. It is the only writer of the session's
// mouseDown flag.
type Translator struct {
	sess *session.Session
	log  *logger.Logger

	// OnError, when set, observes every dispatch failure.
	OnError func(error)
}

func NewTranslator(sess *session.Session, log *logger.Logger) *Translator {
	return &Translator{sess: sess, log: log}
}

// HandleRaw decodes and applies one control message. Dispatch failures
// are logged and swallowed; only malformed payloads surface an error.
func (t *Translator) HandleRaw(ctx context.Context, data []byte) error {
	ev, err := Decode(data)
	if err != nil {
		return err
	}
	if err = t.Handle(ctx, ev); err != nil {
		t.log.Warn().Err(err).Str("ev", ev.Type).Msg("event dropped")
		if t.OnError != nil {
			t.OnError(err)
		}
	}
	return nil
}

// Handle applies one decoded event to the tab.
func (t *Translator) Handle(ctx context.Context, ev Event) error {
	switch ev.Type {
	case TypeMouse:
		return t.mouse(ctx, ev)
	case TypeKeyboard:
		return t.keyboard(ctx, ev)
	case TypeScroll:
		return t.dispatch(t.sess.Tab().Wheel(ctx, ev.DeltaX, ev.DeltaY))
	case TypeNavigation:
		if ev.URL == "" {
			return fmt.Errorf("%w: empty url", ErrBadEvent)
		}
		return t.dispatch(t.sess.Tab().Navigate(ctx, ev.URL))
	case TypeResize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return fmt.Errorf("%w: bad viewport %dx%d", ErrBadEvent, ev.Width, ev.Height)
		}
		return t.dispatch(t.sess.Tab().SetViewport(ctx, ev.Width, ev.Height))
	default:
		t.log.Debug().Msgf("unknown event type %q", ev.Type)
		return nil
	}
}

func (t *Translator) mouse(ctx context.Context, ev Event) error {
	tab := t.sess.Tab()
	kind := ev.EventType
	if ev.IsDblClick {
		kind = DblClick
	}
	switch kind {
	case MouseDown:
		t.sess.SetMouseDown(true)
		if err := tab.MouseMove(ctx, ev.X, ev.Y); err != nil {
			return t.dispatch(err)
		}
		return t.dispatch(tab.Click(ctx, ev.X, ev.Y))
	case MouseUp:
		t.sess.SetMouseDown(false)
		if err := tab.MouseMove(ctx, ev.X, ev.Y); err != nil {
			return t.dispatch(err)
		}
		return t.dispatch(tab.MouseUp(ctx))
	case DblClick:
		t.sess.SetMouseDown(false)
		if err := tab.MouseMove(ctx, ev.X, ev.Y); err != nil {
			return t.dispatch(err)
		}
		for i := 0; i < 2; i++ {
			if i > 0 {
				time.Sleep(dblClickGap)
			}
			if err := tab.MouseDown(ctx); err != nil {
				return t.dispatch(err)
			}
			if err := tab.MouseUp(ctx); err != nil {
				return t.dispatch(err)
			}
		}
		return nil
	case MouseMove:
		// moves replay only while dragging
		if !t.sess.MouseDown() {
			return nil
		}
		return t.dispatch(tab.MouseMove(ctx, ev.X, ev.Y))
	default:
		t.log.Debug().Msgf("unknown mouse event %q", ev.EventType)
		return nil
	}
}

func (t *Translator) keyboard(ctx context.Context, ev Event) error {
	if ev.EventType == KeyUp {
		// the engine replays full press semantics on keydown
		return nil
	}
	if ev.EventType != KeyDown {
		t.log.Debug().Msgf("unknown keyboard event %q", ev.EventType)
		return nil
	}
	tab := t.sess.Tab()
	switch {
	case specialKeys[ev.Key] != "":
		return t.dispatch(tab.KeyPress(ctx, chord(specialKeys[ev.Key], ev)))
	case utf8.RuneCountInString(ev.Key) == 1:
		// shift is already baked into the reported character;
		// the other modifiers make it a shortcut chord
		noShift := ev
		noShift.ShiftKey = false
		if mods := modifiers(noShift); mods != "" {
			return t.dispatch(tab.KeyPress(ctx, mods+ev.Key))
		}
		return t.dispatch(tab.TypeText(ctx, ev.Key))
	case ev.Key == "F5":
		return t.dispatch(tab.Reload(ctx))
	default:
		t.log.Debug().Msgf("unhandled key %q", ev.Key)
		return nil
	}
}

// modifiers renders the held modifier set as a chord prefix.
func modifiers(ev Event) (m string) {
	if ev.ShiftKey {
		m += "Shift+"
	}
	if ev.CtrlKey {
		m += "Control+"
	}
	if ev.AltKey {
		m += "Alt+"
	}
	if ev.MetaKey {
		m += "Meta+"
	}
	return
}

func chord(key string, ev Event) string { return modifiers(ev) + key }

func (t *Translator) dispatch(err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	return nil
}
