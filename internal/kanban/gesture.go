package kanban

import (
	"fmt"
	"strings"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// SignalKind is the device-independent vocabulary the Board understands.
type SignalKind string

const (
	SignalStart  SignalKind = "start"
	SignalMove   SignalKind = "move"
	SignalEnd    SignalKind = "end"
	SignalCancel SignalKind = "cancel"
)

// Signal is a raw client event after translation.
type Signal struct {
	Kind          SignalKind
	Input         Input
	ApplicationID string
	At            Point
	HasPoint      bool
	Columns       []ColumnRect

	// Item is resolved from ApplicationID by Sessions before a start
	// signal reaches the Board.
	Item *tracker.Application
}

// Event is a browser event as posted by the board client. Pointer events
// carry X and Y; touch events carry touch lists.
type Event struct {
	Input          Input        `json:"input"`
	Type           string       `json:"type"`
	ApplicationID  string       `json:"applicationId,omitempty"`
	X              *float64     `json:"x,omitempty"`
	Y              *float64     `json:"y,omitempty"`
	Touches        []Point      `json:"touches,omitempty"`
	ChangedTouches []Point      `json:"changedTouches,omitempty"`
	Columns        []ColumnRect `json:"columns,omitempty"`
}

// Adapter translates one input family into Signals.
type Adapter interface {
	Translate(ev Event) (Signal, error)
}

// AdapterFor returns the adapter for an input family.
func AdapterFor(input Input) (Adapter, error) {
	switch input {
	case InputPointer, "":
		return PointerAdapter{}, nil
	case InputTouch:
		return TouchAdapter{}, nil
	}
	return nil, apperr.Validation(fmt.Sprintf("unsupported input %q", input), nil)
}

// PointerAdapter covers mouse, pen and HTML5 drag-and-drop events. A drop
// outside any column arrives as dragend alone and cancels.
type PointerAdapter struct{}

var pointerKinds = map[string]SignalKind{
	"pointerdown":   SignalStart,
	"mousedown":     SignalStart,
	"dragstart":     SignalStart,
	"pointermove":   SignalMove,
	"mousemove":     SignalMove,
	"dragenter":     SignalMove,
	"dragover":      SignalMove,
	"pointerup":     SignalEnd,
	"mouseup":       SignalEnd,
	"drop":          SignalEnd,
	"pointercancel": SignalCancel,
	"dragend":       SignalCancel,
}

func (PointerAdapter) Translate(ev Event) (Signal, error) {
	kind, ok := pointerKinds[strings.ToLower(ev.Type)]
	if !ok {
		return Signal{}, apperr.Validation(fmt.Sprintf("unsupported pointer event %q", ev.Type), nil)
	}
	sig := Signal{Kind: kind, Input: InputPointer, ApplicationID: ev.ApplicationID, Columns: ev.Columns}
	if ev.X != nil && ev.Y != nil {
		sig.At = Point{X: *ev.X, Y: *ev.Y}
		sig.HasPoint = true
	}
	return sig, validate(sig)
}

// TouchAdapter covers touchstart, touchmove, touchend and touchcancel. The
// first touch point drives the gesture.
type TouchAdapter struct{}

var touchKinds = map[string]SignalKind{
	"touchstart":  SignalStart,
	"touchmove":   SignalMove,
	"touchend":    SignalEnd,
	"touchcancel": SignalCancel,
}

func (TouchAdapter) Translate(ev Event) (Signal, error) {
	kind, ok := touchKinds[strings.ToLower(ev.Type)]
	if !ok {
		return Signal{}, apperr.Validation(fmt.Sprintf("unsupported touch event %q", ev.Type), nil)
	}
	sig := Signal{Kind: kind, Input: InputTouch, ApplicationID: ev.ApplicationID, Columns: ev.Columns}

	// touchend has an empty touches list; the lifted finger is in changedTouches.
	points := ev.Touches
	if kind == SignalEnd || len(points) == 0 {
		points = ev.ChangedTouches
	}
	if len(points) > 0 {
		sig.At = points[0]
		sig.HasPoint = true
	}
	return sig, validate(sig)
}

func validate(sig Signal) error {
	switch sig.Kind {
	case SignalStart:
		if sig.ApplicationID == "" {
			return apperr.Validation("start event requires applicationId", nil)
		}
		if !sig.HasPoint {
			return apperr.Validation("start event requires a position", nil)
		}
	case SignalMove:
		if !sig.HasPoint {
			return apperr.Validation("move event requires a position", nil)
		}
	}
	return nil
}
