package kanban

import (
	"context"
	"fmt"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// Board gesture states:
//
//	Idle ──start──► Dragging ──move over column──► Hovering
//	 ▲                 │                              │
//	 └──end / cancel───┴──────────end / cancel────────┘
//
// Moving over no column keeps the last candidate column.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateHovering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateHovering:
		return "hovering"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state by name in JSON feedback.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Input is the kind of device driving a gesture.
type Input string

const (
	InputPointer Input = "pointer"
	InputTouch   Input = "touch"
)

// Outcome is what a finished gesture did.
type Outcome string

const (
	OutcomeNone  Outcome = "none"
	OutcomeMoved Outcome = "moved"
	OutcomeOpen  Outcome = "open"
)

// StatusUpdater persists a status change. store.Store satisfies it.
type StatusUpdater interface {
	Update(ctx context.Context, userID, id string, patch tracker.Patch) (tracker.Application, error)
}

// Result describes a finished gesture.
type Result struct {
	Outcome       Outcome              `json:"outcome"`
	ApplicationID string               `json:"applicationId,omitempty"`
	From          tracker.Status       `json:"from,omitempty"`
	To            tracker.Status       `json:"to,omitempty"`
	NavigateTo    string               `json:"navigateTo,omitempty"`
	Application   *tracker.Application `json:"application,omitempty"`
}

// Feedback is returned for every handled signal so the client can render
// the drag preview and decide whether to suppress native scrolling.
type Feedback struct {
	State          State          `json:"state"`
	ApplicationID  string         `json:"applicationId,omitempty"`
	Origin         tracker.Status `json:"origin,omitempty"`
	Candidate      tracker.Status `json:"candidate,omitempty"`
	PreventDefault bool           `json:"preventDefault"`
	Result         *Result        `json:"result,omitempty"`
}

// DetailPath is where a tap on a card navigates.
func DetailPath(id string) string { return "/applications/" + id }

// Board tracks one user's drag gesture. It is not safe for concurrent use;
// Sessions serializes access per user.
type Board struct {
	userID  string
	updater StatusUpdater

	state     State
	input     Input
	item      tracker.Application
	start     Point
	candidate tracker.Status
	dragged   bool
	crossed   bool
}

func NewBoard(userID string, updater StatusUpdater) *Board {
	return &Board{userID: userID, updater: updater}
}

func (b *Board) State() State { return b.state }

// Candidate is the column the card would land in if released now.
func (b *Board) Candidate() tracker.Status { return b.candidate }

// Start picks up item. A gesture already in progress is abandoned without
// any write.
func (b *Board) Start(item tracker.Application, input Input, at Point) {
	b.reset()
	b.state = StateDragging
	b.input = input
	b.item = item
	b.start = at
}

// Move tracks the pointer against the current column layout.
func (b *Board) Move(at Point, columns []ColumnRect) {
	if b.state == StateIdle {
		return
	}
	if distance(at, b.start) > DragThreshold {
		b.dragged = true
	}
	if status, ok := HitTest(at, columns); ok {
		b.candidate = status
		b.state = StateHovering
		if status != b.item.Status {
			b.crossed = true
		}
	}
}

// End releases the card. A tap opens the detail view; dropping on a column
// other than the card's own writes the new status exactly once. The board
// is idle afterwards whatever the outcome.
func (b *Board) End(ctx context.Context) (Result, error) {
	if b.state == StateIdle {
		return Result{Outcome: OutcomeNone}, nil
	}
	item, target, tap := b.item, b.candidate, b.isTap()
	b.reset()

	res := Result{ApplicationID: item.ID, From: item.Status}
	if tap {
		res.Outcome = OutcomeOpen
		res.NavigateTo = DetailPath(item.ID)
		return res, nil
	}
	if target == "" || target == item.Status {
		res.Outcome = OutcomeNone
		return res, nil
	}

	res.To = target
	updated, err := b.updater.Update(ctx, b.userID, item.ID, tracker.Patch{Status: &target})
	if err != nil {
		res.Outcome = OutcomeNone
		if apperr.KindOf(err) == apperr.KindStoreWrite {
			return res, err
		}
		return res, apperr.StoreWrite("could not move application", err)
	}
	res.Outcome = OutcomeMoved
	res.Application = &updated
	return res, nil
}

// Cancel abandons the gesture without writing.
func (b *Board) Cancel() { b.reset() }

// Handle applies one translated signal and reports the resulting state.
func (b *Board) Handle(ctx context.Context, sig Signal) (Feedback, error) {
	var (
		res *Result
		err error
	)
	switch sig.Kind {
	case SignalStart:
		if sig.Item == nil {
			return b.feedback(sig), apperr.Validation("start requires an application", nil)
		}
		b.Start(*sig.Item, sig.Input, sig.At)
	case SignalMove:
		b.Move(sig.At, sig.Columns)
	case SignalEnd:
		if sig.HasPoint {
			b.Move(sig.At, sig.Columns)
		}
		var r Result
		r, err = b.End(ctx)
		res = &r
	case SignalCancel:
		b.Cancel()
	default:
		return b.feedback(sig), apperr.Validation(fmt.Sprintf("unknown signal %q", sig.Kind), nil)
	}
	fb := b.feedback(sig)
	fb.Result = res
	return fb, err
}

func (b *Board) feedback(sig Signal) Feedback {
	fb := Feedback{State: b.state, Candidate: b.candidate}
	if b.state != StateIdle {
		fb.ApplicationID = b.item.ID
		fb.Origin = b.item.Status
	}
	fb.PreventDefault = sig.Input == InputTouch && sig.Kind == SignalMove && b.state != StateIdle
	return fb
}

// isTap: a pointer gesture that never left the threshold, or a touch
// gesture that never entered a column other than its own.
func (b *Board) isTap() bool {
	if b.input == InputTouch {
		return !b.crossed
	}
	return !b.dragged
}

func (b *Board) reset() {
	b.state = StateIdle
	b.input = ""
	b.item = tracker.Application{}
	b.start = Point{}
	b.candidate = ""
	b.dragged = false
	b.crossed = false
}
