package tracker_test

import (
	"testing"

	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"wishlist", "applied", "interview", "offered", "rejected"}
	for _, s := range valid {
		got, err := tracker.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"", "hired", "APPLIED", " applied", "applied "} {
		if _, err := tracker.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

// Statuses must list every status exactly once, in column order.
func TestStatuses_ColumnOrder(t *testing.T) {
	want := []tracker.Status{
		tracker.StatusWishlist,
		tracker.StatusApplied,
		tracker.StatusInterview,
		tracker.StatusOffered,
		tracker.StatusRejected,
	}
	if len(tracker.Statuses) != len(want) {
		t.Fatalf("len(Statuses) = %d, want %d", len(tracker.Statuses), len(want))
	}
	for i, s := range want {
		if tracker.Statuses[i] != s {
			t.Errorf("Statuses[%d] = %q, want %q", i, tracker.Statuses[i], s)
		}
	}
}

// ── ParseJobType ───────────────────────────────────────────────────────────

func TestParseJobType(t *testing.T) {
	for _, s := range []string{"", "remote", "hybrid", "onsite"} {
		if _, err := tracker.ParseJobType(s); err != nil {
			t.Errorf("ParseJobType(%q) returned unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"wfo", "Remote", "all"} {
		if _, err := tracker.ParseJobType(s); err == nil {
			t.Errorf("ParseJobType(%q) expected error, got nil", s)
		}
	}
}
