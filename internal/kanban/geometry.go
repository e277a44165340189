package kanban

import (
	"math"

	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// DragThreshold is how far, in CSS pixels, the pointer must travel from
// where the gesture started before it counts as a drag instead of a tap.
const DragThreshold = 8.0

// Point is a viewport coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a column's bounding client rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width &&
		p.Y >= r.Top && p.Y <= r.Top+r.Height
}

// ColumnRect is the current on-screen region of one column.
type ColumnRect struct {
	Status tracker.Status `json:"status"`
	Rect   Rect           `json:"rect"`
}

// HitTest returns the column under p. Layouts are passed with every event
// and never cached, so a resized or scrolled board is always tested against
// its current geometry.
func HitTest(p Point, columns []ColumnRect) (tracker.Status, bool) {
	for _, c := range columns {
		if c.Status.Valid() && c.Rect.Contains(p) {
			return c.Status, true
		}
	}
	return "", false
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
