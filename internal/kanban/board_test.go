package kanban_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/kanban"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

type updateCall struct {
	userID string
	id     string
	status tracker.Status
}

type fakeUpdater struct {
	calls []updateCall
	err   error
}

func (f *fakeUpdater) Update(_ context.Context, userID, id string, patch tracker.Patch) (tracker.Application, error) {
	call := updateCall{userID: userID, id: id}
	if patch.Status != nil {
		call.status = *patch.Status
	}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return tracker.Application{}, f.err
	}
	return tracker.Application{ID: id, UserID: userID, Status: call.status}, nil
}

// layout places the five columns side by side, 100px wide with 10px gaps.
func layout() []kanban.ColumnRect {
	cols := make([]kanban.ColumnRect, 0, len(tracker.Statuses))
	for i, s := range tracker.Statuses {
		cols = append(cols, kanban.ColumnRect{
			Status: s,
			Rect:   kanban.Rect{Left: float64(i * 110), Top: 0, Width: 100, Height: 500},
		})
	}
	return cols
}

// center returns a point in the middle of status's column.
func center(s tracker.Status) kanban.Point {
	for _, c := range layout() {
		if c.Status == s {
			return kanban.Point{X: c.Rect.Left + 50, Y: 250}
		}
	}
	panic("unknown status " + s)
}

var (
	gap    = kanban.Point{X: 105, Y: 250}
	card   = tracker.Application{ID: "app-1", UserID: "user-1", Status: tracker.StatusApplied}
	ctxBg  = context.Background()
	offset = kanban.Point{X: 3, Y: 3}
)

func add(a, b kanban.Point) kanban.Point { return kanban.Point{X: a.X + b.X, Y: a.Y + b.Y} }

// ── geometry ───────────────────────────────────────────────────────────────

func TestHitTest(t *testing.T) {
	for _, s := range tracker.Statuses {
		got, ok := kanban.HitTest(center(s), layout())
		if !ok || got != s {
			t.Errorf("HitTest(center(%s)) = %q, %v", s, got, ok)
		}
	}
	if got, ok := kanban.HitTest(gap, layout()); ok {
		t.Errorf("HitTest(gap) = %q, want no column", got)
	}
	if _, ok := kanban.HitTest(kanban.Point{X: 50, Y: 600}, layout()); ok {
		t.Error("HitTest below the board must miss")
	}
}

func TestRectContains_EdgesIncluded(t *testing.T) {
	r := kanban.Rect{Left: 10, Top: 10, Width: 20, Height: 20}
	for _, p := range []kanban.Point{{X: 10, Y: 10}, {X: 30, Y: 30}, {X: 20, Y: 10}} {
		if !r.Contains(p) {
			t.Errorf("Contains(%v) = false, want true", p)
		}
	}
	if r.Contains(kanban.Point{X: 30.5, Y: 20}) {
		t.Error("Contains just outside the right edge must be false")
	}
}

// ── state transitions ──────────────────────────────────────────────────────

func TestBoard_StartsIdle(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})
	if b.State() != kanban.StateIdle {
		t.Errorf("new board state = %s, want idle", b.State())
	}
}

func TestBoard_StartMoveHover(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	if b.State() != kanban.StateDragging {
		t.Fatalf("after start state = %s, want dragging", b.State())
	}

	b.Move(center(tracker.StatusOffered), layout())
	if b.State() != kanban.StateHovering || b.Candidate() != tracker.StatusOffered {
		t.Fatalf("after move state = %s candidate = %q", b.State(), b.Candidate())
	}

	// Leaving every column keeps the last candidate.
	b.Move(gap, layout())
	if b.State() != kanban.StateHovering || b.Candidate() != tracker.StatusOffered {
		t.Errorf("over gap state = %s candidate = %q, want hovering offered", b.State(), b.Candidate())
	}

	b.Move(center(tracker.StatusRejected), layout())
	if b.Candidate() != tracker.StatusRejected {
		t.Errorf("candidate = %q, want rejected", b.Candidate())
	}
}

func TestBoard_MoveWhileIdleIsIgnored(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})
	b.Move(center(tracker.StatusOffered), layout())
	if b.State() != kanban.StateIdle || b.Candidate() != "" {
		t.Errorf("idle move changed state to %s/%q", b.State(), b.Candidate())
	}
}

// ── commit ─────────────────────────────────────────────────────────────────

func TestBoard_DropOnOtherColumnUpdatesOnce(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusInterview), layout())
	res, err := b.End(ctxBg)
	if err != nil {
		t.Fatalf("End: %v", err)
	}

	if res.Outcome != kanban.OutcomeMoved {
		t.Errorf("outcome = %s, want moved", res.Outcome)
	}
	if res.From != tracker.StatusApplied || res.To != tracker.StatusInterview {
		t.Errorf("from/to = %s/%s", res.From, res.To)
	}
	if res.Application == nil || res.Application.Status != tracker.StatusInterview {
		t.Errorf("result application = %+v", res.Application)
	}
	want := []updateCall{{userID: "user-1", id: "app-1", status: tracker.StatusInterview}}
	if len(up.calls) != 1 || up.calls[0] != want[0] {
		t.Errorf("updates = %+v, want %+v", up.calls, want)
	}
	if b.State() != kanban.StateIdle {
		t.Errorf("state after end = %s, want idle", b.State())
	}

	// A second release without a new start must not write again.
	if res, _ := b.End(ctxBg); res.Outcome != kanban.OutcomeNone {
		t.Errorf("second end outcome = %s, want none", res.Outcome)
	}
	if len(up.calls) != 1 {
		t.Errorf("updates after second end = %d, want 1", len(up.calls))
	}
}

func TestBoard_DropOnOwnColumnDoesNotWrite(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusOffered), layout())
	b.Move(add(center(tracker.StatusApplied), kanban.Point{X: 20}), layout())
	res, err := b.End(ctxBg)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Outcome != kanban.OutcomeNone {
		t.Errorf("outcome = %s, want none", res.Outcome)
	}
	if len(up.calls) != 0 {
		t.Errorf("updates = %+v, want none", up.calls)
	}
}

func TestBoard_CancelDoesNotWrite(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusRejected), layout())
	b.Cancel()

	if b.State() != kanban.StateIdle {
		t.Errorf("state after cancel = %s, want idle", b.State())
	}
	if len(up.calls) != 0 {
		t.Errorf("updates = %+v, want none", up.calls)
	}
}

func TestBoard_RestartAbandonsPreviousGesture(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusRejected), layout())

	other := tracker.Application{ID: "app-2", Status: tracker.StatusWishlist}
	b.Start(other, kanban.InputPointer, center(tracker.StatusWishlist))
	if b.Candidate() != "" {
		t.Errorf("candidate after restart = %q, want empty", b.Candidate())
	}
	b.Move(center(tracker.StatusApplied), layout())
	if _, err := b.End(ctxBg); err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(up.calls) != 1 || up.calls[0].id != "app-2" || up.calls[0].status != tracker.StatusApplied {
		t.Errorf("updates = %+v", up.calls)
	}
}

func TestBoard_UpdateFailureSurfacesStoreWrite(t *testing.T) {
	up := &fakeUpdater{err: errors.New("connection reset")}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputPointer, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusOffered), layout())
	res, err := b.End(ctxBg)

	if !apperr.IsKind(err, apperr.KindStoreWrite) {
		t.Errorf("err = %v, want STORE_WRITE", err)
	}
	if res.Outcome != kanban.OutcomeNone {
		t.Errorf("outcome = %s, want none", res.Outcome)
	}
	if b.State() != kanban.StateIdle {
		t.Errorf("state after failed drop = %s, want idle", b.State())
	}
}

// ── tap vs drag ────────────────────────────────────────────────────────────

func TestBoard_PointerTapOpensDetail(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	start := center(tracker.StatusApplied)
	b.Start(card, kanban.InputPointer, start)
	b.Move(add(start, offset), layout())
	res, err := b.End(ctxBg)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Outcome != kanban.OutcomeOpen || res.NavigateTo != "/applications/app-1" {
		t.Errorf("result = %+v, want open /applications/app-1", res)
	}
	if len(up.calls) != 0 {
		t.Errorf("tap wrote %+v", up.calls)
	}
}

func TestBoard_PointerSmallMoveAcrossEdgeIsStillTap(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	adjacent := []kanban.ColumnRect{
		{Status: tracker.StatusApplied, Rect: kanban.Rect{Left: 0, Width: 100, Height: 500}},
		{Status: tracker.StatusInterview, Rect: kanban.Rect{Left: 101, Width: 100, Height: 500}},
	}
	b.Start(card, kanban.InputPointer, kanban.Point{X: 98, Y: 250})
	b.Move(kanban.Point{X: 104, Y: 250}, adjacent)
	if b.Candidate() != tracker.StatusInterview {
		t.Fatalf("candidate = %q, want interview", b.Candidate())
	}
	res, _ := b.End(ctxBg)

	if res.Outcome != kanban.OutcomeOpen {
		t.Errorf("outcome = %s, want open", res.Outcome)
	}
	if len(up.calls) != 0 {
		t.Errorf("updates = %+v, want none", up.calls)
	}
}

func TestBoard_PointerDragBackToStartIsNotTap(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})

	start := center(tracker.StatusApplied)
	b.Start(card, kanban.InputPointer, start)
	b.Move(add(start, kanban.Point{X: 0, Y: 40}), layout())
	b.Move(start, layout())
	res, _ := b.End(ctxBg)

	if res.Outcome != kanban.OutcomeNone {
		t.Errorf("outcome = %s, want none", res.Outcome)
	}
}

func TestBoard_TouchTapWithinOwnColumnOpensDetail(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	start := center(tracker.StatusApplied)
	b.Start(card, kanban.InputTouch, start)
	b.Move(add(start, kanban.Point{X: 0, Y: 60}), layout())
	res, _ := b.End(ctxBg)

	if res.Outcome != kanban.OutcomeOpen {
		t.Errorf("outcome = %s, want open", res.Outcome)
	}
	if len(up.calls) != 0 {
		t.Errorf("updates = %+v, want none", up.calls)
	}
}

func TestBoard_TouchDropOnOtherColumnUpdates(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputTouch, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusWishlist), layout())
	res, _ := b.End(ctxBg)

	if res.Outcome != kanban.OutcomeMoved {
		t.Errorf("outcome = %s, want moved", res.Outcome)
	}
	if len(up.calls) != 1 || up.calls[0].status != tracker.StatusWishlist {
		t.Errorf("updates = %+v", up.calls)
	}
}

func TestBoard_TouchDragOutAndBackIsNotTap(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	b.Start(card, kanban.InputTouch, center(tracker.StatusApplied))
	b.Move(center(tracker.StatusOffered), layout())
	b.Move(center(tracker.StatusApplied), layout())
	res, _ := b.End(ctxBg)

	if res.Outcome != kanban.OutcomeNone {
		t.Errorf("outcome = %s, want none", res.Outcome)
	}
	if res.NavigateTo != "" {
		t.Errorf("navigateTo = %q, want empty", res.NavigateTo)
	}
	if len(up.calls) != 0 {
		t.Errorf("updates = %+v, want none", up.calls)
	}

	// The next gesture starts clean.
	b.Start(card, kanban.InputTouch, center(tracker.StatusApplied))
	res, _ = b.End(ctxBg)
	if res.Outcome != kanban.OutcomeOpen {
		t.Errorf("outcome after restart = %s, want open", res.Outcome)
	}
}

// ── Handle ─────────────────────────────────────────────────────────────────

func TestBoard_HandleTouchMovePreventsDefault(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})

	item := card
	fb, err := b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalStart, Input: kanban.InputTouch, At: center(tracker.StatusApplied), HasPoint: true, Item: &item})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if fb.PreventDefault {
		t.Error("touch start must not prevent default")
	}

	fb, _ = b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalMove, Input: kanban.InputTouch, At: center(tracker.StatusOffered), HasPoint: true, Columns: layout()})
	if !fb.PreventDefault {
		t.Error("touch move while dragging must prevent default")
	}
	if fb.State != kanban.StateHovering || fb.Candidate != tracker.StatusOffered || fb.Origin != tracker.StatusApplied {
		t.Errorf("feedback = %+v", fb)
	}

	_, _ = b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalCancel, Input: kanban.InputTouch})
	fb, _ = b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalMove, Input: kanban.InputTouch, At: gap, HasPoint: true})
	if fb.PreventDefault {
		t.Error("touch move while idle must not prevent default")
	}
}

func TestBoard_HandleDropUsesReleasePoint(t *testing.T) {
	up := &fakeUpdater{}
	b := kanban.NewBoard("user-1", up)

	item := card
	_, _ = b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalStart, Input: kanban.InputPointer, At: center(tracker.StatusApplied), HasPoint: true, Item: &item})
	fb, err := b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalEnd, Input: kanban.InputPointer, At: center(tracker.StatusRejected), HasPoint: true, Columns: layout()})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if fb.Result == nil || fb.Result.Outcome != kanban.OutcomeMoved || fb.Result.To != tracker.StatusRejected {
		t.Errorf("result = %+v", fb.Result)
	}
	if fb.State != kanban.StateIdle {
		t.Errorf("state = %s, want idle", fb.State)
	}
}

func TestBoard_HandleStartWithoutItem(t *testing.T) {
	b := kanban.NewBoard("user-1", &fakeUpdater{})
	_, err := b.Handle(ctxBg, kanban.Signal{Kind: kanban.SignalStart, Input: kanban.InputPointer, HasPoint: true})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v, want VALIDATION", err)
	}
}

func TestState_String(t *testing.T) {
	cases := map[kanban.State]string{
		kanban.StateIdle:     "idle",
		kanban.StateDragging: "dragging",
		kanban.StateHovering: "hovering",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
