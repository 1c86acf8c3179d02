package notify

import (
	"fmt"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside w.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// dayWindow returns the calendar day offset days from now's date in loc.
// Days are built with time.Date so DST days keep their real length.
func dayWindow(now time.Time, loc *time.Location, offset int) Window {
	y, m, d := now.In(loc).Date()
	return Window{
		Start: time.Date(y, m, d+offset, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d+offset+1, 0, 0, 0, 0, loc),
	}
}

// UpcomingWindow is tomorrow in loc.
func UpcomingWindow(now time.Time, loc *time.Location) Window {
	return dayWindow(now, loc, 1)
}

// CompletedWindow is yesterday in loc.
func CompletedWindow(now time.Time, loc *time.Location) Window {
	return dayWindow(now, loc, -1)
}

// WindowFor returns the window a pass of kind looks at.
func WindowFor(kind model.Kind, now time.Time, loc *time.Location) Window {
	if kind == model.KindCompleted {
		return CompletedWindow(now, loc)
	}
	return UpcomingWindow(now, loc)
}
