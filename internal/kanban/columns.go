// Package kanban implements the drag-and-drop board over job applications.
//
// Board columns, left to right:
//
//	wishlist │ applied │ interview │ offered │ rejected
//
// Any card may be dropped on any column; the drop is the only operation
// that changes an application's status from the board.
package kanban

import "github.com/ntrioooo/job-tracker/internal/tracker"

var columnLabels = map[tracker.Status]string{
	tracker.StatusWishlist:  "Wishlist",
	tracker.StatusApplied:   "Applied",
	tracker.StatusInterview: "Interview",
	tracker.StatusOffered:   "Offered",
	tracker.StatusRejected:  "Rejected",
}

// Column is one lane of the board as rendered to clients.
type Column struct {
	Status       tracker.Status        `json:"status"`
	Label        string                `json:"label"`
	Count        int                   `json:"count"`
	Applications []tracker.Application `json:"applications"`
}

// Label returns the display label of a status column.
func Label(s tracker.Status) string {
	if l, ok := columnLabels[s]; ok {
		return l
	}
	return string(s)
}

// Columns buckets apps by status into the five board columns. Cards keep
// their order from apps.
func Columns(apps []tracker.Application) []Column {
	cols := make([]Column, len(tracker.Statuses))
	index := make(map[tracker.Status]int, len(tracker.Statuses))
	for i, s := range tracker.Statuses {
		cols[i] = Column{Status: s, Label: Label(s), Applications: []tracker.Application{}}
		index[s] = i
	}
	for _, a := range apps {
		i, ok := index[a.Status]
		if !ok {
			continue
		}
		cols[i].Applications = append(cols[i].Applications, a)
		cols[i].Count++
	}
	return cols
}
