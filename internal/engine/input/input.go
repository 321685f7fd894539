// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventMouseDown
	EventMouseUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	Button uint8
}

// Input collects discrete events and continuous state for one frame.
type Input struct {
	events []Event

	// Relative mouse motion accumulated since the last Update.
	MouseDX, MouseDY float32

	keys []uint8
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to frame events.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.MouseDX, i.MouseDY = 0, 0

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				i.events = append(i.events, Event{
					Type: EventKeyDown,
					Key:  e.Keysym.Scancode,
				})
			}

		case *sdl.MouseMotionEvent:
			i.MouseDX += float32(e.XRel)
			i.MouseDY += float32(e.YRel)

		case *sdl.MouseButtonEvent:
			typ := EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				typ = EventMouseDown
			}
			i.events = append(i.events, Event{Type: typ, Button: e.Button})
		}
	}

	i.keys = sdl.GetKeyboardState()
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key went down this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyHeld checks if a key is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return int(scancode) < len(i.keys) && i.keys[scancode] != 0
}

// Axis returns +1, -1 or 0 from a pair of held keys.
func (i *Input) Axis(positive, negative sdl.Scancode) float32 {
	var v float32
	if i.IsKeyHeld(positive) {
		v++
	}
	if i.IsKeyHeld(negative) {
		v--
	}
	return v
}
