package tracker

import "fmt"

// Status values mirror the status CHECK constraint on job_applications.
type Status string

const (
	StatusWishlist  Status = "wishlist"
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffered   Status = "offered"
	StatusRejected  Status = "rejected"
)

// Statuses lists every status in board column order.
var Statuses = []Status{
	StatusWishlist,
	StatusApplied,
	StatusInterview,
	StatusOffered,
	StatusRejected,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values. Matching is exact.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusWishlist, StatusApplied, StatusInterview, StatusOffered, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// JobType is the work arrangement of a position. The zero value means unset.
type JobType string

const (
	JobTypeRemote JobType = "remote"
	JobTypeHybrid JobType = "hybrid"
	JobTypeOnsite JobType = "onsite"
)

// JobTypes lists every non-empty job type in display order.
var JobTypes = []JobType{JobTypeRemote, JobTypeHybrid, JobTypeOnsite}

// ParseJobType accepts the three known job types and the empty string.
func ParseJobType(s string) (JobType, error) {
	jt := JobType(s)
	switch jt {
	case "", JobTypeRemote, JobTypeHybrid, JobTypeOnsite:
		return jt, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

func (j JobType) Valid() bool {
	_, err := ParseJobType(string(j))
	return err == nil
}
