// Package tracker holds the job application model shared by the store, the
// board, the list view and analytics.
//
// Values are treated as immutable: every change goes through Apply, which
// returns a new Application and leaves the receiver untouched.
package tracker

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage form of AppliedDate.
const DateLayout = "2006-01-02"

// InterviewStage is one step of the interview process.
type InterviewStage struct {
	Stage string `json:"stage"`
	Date  string `json:"date"`
	Notes string `json:"notes,omitempty"`
}

// Application is the JSON shape returned to clients.
type Application struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	CompanyName     string           `json:"companyName"`
	Position        string           `json:"position"`
	Status          Status           `json:"status"`
	AppliedDate     string           `json:"appliedDate"`
	JobType         JobType          `json:"jobType,omitempty"`
	Location        string           `json:"location,omitempty"`
	Salary          string           `json:"salary,omitempty"`
	JobURL          string           `json:"jobUrl,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Tags            []string         `json:"tags"`
	InterviewStages []InterviewStage `json:"interviewStages"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Draft is the input of a create. ID, UserID and CreatedAt are assigned by
// the store.
type Draft struct {
	CompanyName     string           `json:"companyName"`
	Position        string           `json:"position"`
	Status          Status           `json:"status"`
	AppliedDate     string           `json:"appliedDate"`
	JobType         JobType          `json:"jobType"`
	Location        string           `json:"location"`
	Salary          string           `json:"salary"`
	JobURL          string           `json:"jobUrl"`
	Notes           string           `json:"notes"`
	Tags            []string         `json:"tags"`
	InterviewStages []InterviewStage `json:"interviewStages"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	CompanyName     *string          `json:"companyName,omitempty"`
	Position        *string          `json:"position,omitempty"`
	Status          *Status          `json:"status,omitempty"`
	AppliedDate     *string          `json:"appliedDate,omitempty"`
	JobType         *JobType         `json:"jobType,omitempty"`
	Location        *string          `json:"location,omitempty"`
	Salary          *string          `json:"salary,omitempty"`
	JobURL          *string          `json:"jobUrl,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	InterviewStages []InterviewStage `json:"interviewStages,omitempty"`
}

// Fields returns the JSON names of the fields set on p, in declaration order.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.CompanyName != nil, "companyName")
	add(p.Position != nil, "position")
	add(p.Status != nil, "status")
	add(p.AppliedDate != nil, "appliedDate")
	add(p.JobType != nil, "jobType")
	add(p.Location != nil, "location")
	add(p.Salary != nil, "salary")
	add(p.JobURL != nil, "jobUrl")
	add(p.Notes != nil, "notes")
	add(p.Tags != nil, "tags")
	add(p.InterviewStages != nil, "interviewStages")
	return fields
}

func (p Patch) IsEmpty() bool { return len(p.Fields()) == 0 }

// NewApplication builds the record a create writes. Status defaults to
// applied and AppliedDate to the date of now.
func NewApplication(id, userID string, d Draft, now time.Time) (Application, error) {
	if d.Status == "" {
		d.Status = StatusApplied
	}
	if d.AppliedDate == "" {
		d.AppliedDate = now.UTC().Format(DateLayout)
	}

	a := Application{
		ID:              id,
		UserID:          userID,
		CompanyName:     strings.TrimSpace(d.CompanyName),
		Position:        strings.TrimSpace(d.Position),
		Status:          d.Status,
		AppliedDate:     d.AppliedDate,
		JobType:         d.JobType,
		Location:        d.Location,
		Salary:          d.Salary,
		JobURL:          d.JobURL,
		Notes:           d.Notes,
		Tags:            NormalizeTags(d.Tags),
		InterviewStages: slices.Clone(d.InterviewStages),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.InterviewStages == nil {
		a.InterviewStages = []InterviewStage{}
	}
	if err := a.Validate(); err != nil {
		return Application{}, err
	}
	return a, nil
}

// Apply returns a copy of a with p merged in. ID, UserID and CreatedAt never
// change. The result is validated; a is not modified either way.
func (a Application) Apply(p Patch) (Application, error) {
	next := a.Clone()
	if p.CompanyName != nil {
		next.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.Position != nil {
		next.Position = strings.TrimSpace(*p.Position)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.AppliedDate != nil {
		next.AppliedDate = *p.AppliedDate
	}
	if p.JobType != nil {
		next.JobType = *p.JobType
	}
	if p.Location != nil {
		next.Location = *p.Location
	}
	if p.Salary != nil {
		next.Salary = *p.Salary
	}
	if p.JobURL != nil {
		next.JobURL = *p.JobURL
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.Tags != nil {
		next.Tags = NormalizeTags(p.Tags)
	}
	if p.InterviewStages != nil {
		next.InterviewStages = slices.Clone(p.InterviewStages)
	}
	if err := next.Validate(); err != nil {
		return Application{}, err
	}
	return next, nil
}

// Clone returns a deep copy of a.
func (a Application) Clone() Application {
	c := a
	c.Tags = slices.Clone(a.Tags)
	c.InterviewStages = slices.Clone(a.InterviewStages)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.InterviewStages == nil {
		c.InterviewStages = []InterviewStage{}
	}
	return c
}

// Validate checks the record invariants.
func (a Application) Validate() error {
	var errs []error
	if a.CompanyName == "" {
		errs = append(errs, errors.New("companyName is required"))
	}
	if a.Position == "" {
		errs = append(errs, errors.New("position is required"))
	}
	if !a.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown application status %q", a.Status))
	}
	if !a.JobType.Valid() {
		errs = append(errs, fmt.Errorf("unknown job type %q", a.JobType))
	}
	if _, err := time.Parse(DateLayout, a.AppliedDate); err != nil {
		errs = append(errs, fmt.Errorf("appliedDate must be YYYY-MM-DD, got %q", a.AppliedDate))
	}
	seen := make(map[string]struct{}, len(a.Tags))
	for _, t := range a.Tags {
		if _, dup := seen[t]; dup {
			errs = append(errs, fmt.Errorf("duplicate tag %q", t))
		}
		seen[t] = struct{}{}
	}
	for i, s := range a.InterviewStages {
		if s.Stage == "" || s.Date == "" {
			errs = append(errs, fmt.Errorf("interview stage %d needs a stage and a date", i))
		}
	}
	return errors.Join(errs...)
}

// AppliedTime parses AppliedDate. ok is false for malformed dates.
func (a Application) AppliedTime() (time.Time, bool) {
	t, err := time.Parse(DateLayout, a.AppliedDate)
	return t, err == nil
}

// SortByAppliedDate sorts apps in place, newest appliedDate first. Ties keep
// the most recently created record first.
func SortByAppliedDate(apps []Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedDate != apps[j].AppliedDate {
			// YYYY-MM-DD sorts lexically.
			return apps[i].AppliedDate > apps[j].AppliedDate
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
