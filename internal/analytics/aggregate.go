// Package analytics summarizes a user's applications for the analytics
// view: counts per status, interview and offer rates, a monthly histogram
// and a job-type histogram.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// MonthLayout labels monthly histogram buckets.
const MonthLayout = "Jan 2006"

var hundred = decimal.NewFromInt(100)

var statusLabels = map[tracker.Status]string{
	tracker.StatusWishlist:  "Wishlist",
	tracker.StatusApplied:   "Applied",
	tracker.StatusInterview: "Interview",
	tracker.StatusOffered:   "Offered",
	tracker.StatusRejected:  "Rejected",
}

var jobTypeLabels = map[tracker.JobType]string{
	tracker.JobTypeRemote: "Remote",
	tracker.JobTypeHybrid: "Hybrid",
	tracker.JobTypeOnsite: "On-site",
}

type StatusCount struct {
	Status tracker.Status `json:"status"`
	Label  string         `json:"label"`
	Count  int            `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type JobTypeCount struct {
	JobType tracker.JobType `json:"jobType"`
	Label   string          `json:"label"`
	Count   int             `json:"count"`
}

// Summary is the full aggregate of one collection. Counts and JobTypes
// always carry every bucket, zero or not.
type Summary struct {
	Total         int            `json:"total"`
	Counts        []StatusCount  `json:"counts"`
	InterviewRate string         `json:"interviewRate"`
	OfferRate     string         `json:"offerRate"`
	Monthly       []MonthCount   `json:"monthly"`
	JobTypes      []JobTypeCount `json:"jobTypes"`
}

// Count returns the number of records in status s.
func (s Summary) Count(status tracker.Status) int {
	for _, c := range s.Counts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

// StatusChart is Counts without the empty buckets.
func (s Summary) StatusChart() []StatusCount {
	out := make([]StatusCount, 0, len(s.Counts))
	for _, c := range s.Counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}

// JobTypeChart is JobTypes without the empty buckets.
func (s Summary) JobTypeChart() []JobTypeCount {
	out := make([]JobTypeCount, 0, len(s.JobTypes))
	for _, j := range s.JobTypes {
		if j.Count > 0 {
			out = append(out, j)
		}
	}
	return out
}

// Aggregate computes the summary of apps. Months appear in the order they
// are first met in apps; records whose appliedDate does not parse count
// towards the totals but not the monthly histogram.
func Aggregate(apps []tracker.Application) Summary {
	byStatus := make(map[tracker.Status]int, len(tracker.Statuses))
	byJobType := make(map[tracker.JobType]int, len(tracker.JobTypes))
	monthly := []MonthCount{}
	monthIndex := map[string]int{}

	for _, a := range apps {
		byStatus[a.Status]++
		if a.JobType != "" {
			byJobType[a.JobType]++
		}
		t, ok := a.AppliedTime()
		if !ok {
			continue
		}
		label := t.Format(MonthLayout)
		if i, seen := monthIndex[label]; seen {
			monthly[i].Count++
			continue
		}
		monthIndex[label] = len(monthly)
		monthly = append(monthly, MonthCount{Month: label, Count: 1})
	}

	s := Summary{
		Total:    len(apps),
		Counts:   make([]StatusCount, 0, len(tracker.Statuses)),
		Monthly:  monthly,
		JobTypes: make([]JobTypeCount, 0, len(tracker.JobTypes)),
	}
	for _, st := range tracker.Statuses {
		s.Counts = append(s.Counts, StatusCount{Status: st, Label: statusLabels[st], Count: byStatus[st]})
	}
	for _, jt := range tracker.JobTypes {
		s.JobTypes = append(s.JobTypes, JobTypeCount{JobType: jt, Label: jobTypeLabels[jt], Count: byJobType[jt]})
	}
	s.InterviewRate = Rate(byStatus[tracker.StatusInterview], s.Total)
	s.OfferRate = Rate(byStatus[tracker.StatusOffered], s.Total)
	return s
}

// Rate renders part/total as a percentage with one decimal, "0" when
// total is zero.
func Rate(part, total int) string {
	if total <= 0 {
		return "0"
	}
	return decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		StringFixed(1)
}
