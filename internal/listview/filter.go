// Package listview filters a user's applications for the list view.
package listview

import (
	"fmt"
	"strings"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// All is the categorical filter value that matches every record.
const All = "all"

// Filter is the list view's search box plus its two dropdowns.
type Filter struct {
	Search  string          `json:"search"`
	Status  tracker.Status  `json:"status"`
	JobType tracker.JobType `json:"jobType"`
}

// ParseFilter builds a Filter from raw query values. Empty and "all" leave
// a dropdown unfiltered.
func ParseFilter(search, status, jobType string) (Filter, error) {
	f := Filter{Search: search}

	if status != "" && status != All {
		s, err := tracker.ParseStatus(status)
		if err != nil {
			return Filter{}, apperr.Validation(fmt.Sprintf("unknown status filter %q", status), err)
		}
		f.Status = s
	}
	if jobType != "" && jobType != All {
		j, err := tracker.ParseJobType(jobType)
		if err != nil {
			return Filter{}, apperr.Validation(fmt.Sprintf("unknown job type filter %q", jobType), err)
		}
		f.JobType = j
	}
	return f, nil
}

// Apply returns the records of apps that pass f, in their original order.
// apps is not modified.
func Apply(apps []tracker.Application, f Filter) []tracker.Application {
	needle := strings.ToLower(f.Search)
	out := make([]tracker.Application, 0, len(apps))
	for _, a := range apps {
		if matchesSearch(a, needle) && matchesStatus(a, f.Status) && matchesJobType(a, f.JobType) {
			out = append(out, a)
		}
	}
	return out
}

func matchesSearch(a tracker.Application, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.CompanyName), needle) ||
		strings.Contains(strings.ToLower(a.Position), needle) ||
		(a.Notes != "" && strings.Contains(strings.ToLower(a.Notes), needle))
}

func matchesStatus(a tracker.Application, s tracker.Status) bool {
	return s == "" || a.Status == s
}

func matchesJobType(a tracker.Application, j tracker.JobType) bool {
	return j == "" || a.JobType == j
}
