package listview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/listview"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

func collection() []tracker.Application {
	return []tracker.Application{
		{ID: "1", CompanyName: "Acme", Position: "Backend Engineer", Status: tracker.StatusApplied, JobType: tracker.JobTypeRemote},
		{ID: "2", CompanyName: "Globex", Position: "SRE", Status: tracker.StatusInterview, JobType: tracker.JobTypeOnsite, Notes: "Referral from Acme alumni"},
		{ID: "3", CompanyName: "Initech", Position: "Platform engineer", Status: tracker.StatusApplied, JobType: tracker.JobTypeHybrid},
		{ID: "4", CompanyName: "Umbrella", Position: "Data Analyst", Status: tracker.StatusRejected},
	}
}

func ids(apps []tracker.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	cases := []struct {
		name   string
		filter listview.Filter
		want   []string
	}{
		{"empty filter keeps everything", listview.Filter{}, []string{"1", "2", "3", "4"}},
		{"search is case-insensitive over company", listview.Filter{Search: "ACME"}, []string{"1", "2"}},
		{"search covers position", listview.Filter{Search: "engineer"}, []string{"1", "3"}},
		{"search covers notes", listview.Filter{Search: "alumni"}, []string{"2"}},
		{"status only", listview.Filter{Status: tracker.StatusApplied}, []string{"1", "3"}},
		{"job type only", listview.Filter{JobType: tracker.JobTypeHybrid}, []string{"3"}},
		{"all predicates AND", listview.Filter{Search: "engineer", Status: tracker.StatusApplied, JobType: tracker.JobTypeRemote}, []string{"1"}},
		{"no match", listview.Filter{Search: "zzz"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(listview.Apply(collection(), tc.filter)))
		})
	}
}

func TestApply_SubsetInOriginalOrder(t *testing.T) {
	apps := collection()
	before := ids(apps)

	got := listview.Apply(apps, listview.Filter{Status: tracker.StatusApplied})

	assert.Equal(t, before, ids(apps), "input must not be modified")
	last := -1
	for _, g := range got {
		pos := -1
		for i, a := range apps {
			if a.ID == g.ID {
				pos = i
			}
		}
		require.NotEqual(t, -1, pos, "result %s not in input", g.ID)
		assert.Greater(t, pos, last, "order changed at %s", g.ID)
		last = pos
	}
}

func TestApply_EmptyNotesNeverMatch(t *testing.T) {
	apps := []tracker.Application{{ID: "1", CompanyName: "Acme", Position: "SRE"}}
	assert.Empty(t, listview.Apply(apps, listview.Filter{Search: " "}))
}

func TestParseFilter(t *testing.T) {
	f, err := listview.ParseFilter("go", listview.All, "")
	require.NoError(t, err)
	assert.Equal(t, listview.Filter{Search: "go"}, f)

	f, err = listview.ParseFilter("", "offered", "remote")
	require.NoError(t, err)
	assert.Equal(t, tracker.StatusOffered, f.Status)
	assert.Equal(t, tracker.JobTypeRemote, f.JobType)

	_, err = listview.ParseFilter("", "hired", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = listview.ParseFilter("", "", "freelance")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
