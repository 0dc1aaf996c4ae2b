package snapshot

import (
	"math"
	"time"
)

const (
	// DefaultAnalysisWindowDays is the trailing window used when none is requested
	DefaultAnalysisWindowDays = 30
	// DeadStockLookbackDays is the fixed staleness horizon for dead stock,
	// independent of the analysis window
	DeadStockLookbackDays = 90
)

// Window is the [Start, End] period for period-scoped aggregates
type Window struct {
	Start time.Time
	End   time.Time
	Days  int
}

// NewWindow resolves the analysis window of a rebuild.
// With no explicit bounds it is the trailing days ending at now. An explicit
// end that is not after the start is rejected with ErrInvalidWindow.
func NewWindow(now time.Time, days int, start, end *time.Time) (Window, error) {
	if days <= 0 {
		days = DefaultAnalysisWindowDays
	}

	w := Window{End: now.UTC(), Days: days}
	if end != nil {
		w.End = end.UTC()
	}
	w.Start = w.End.AddDate(0, 0, -days)

	if start != nil {
		w.Start = start.UTC()
		if !w.End.After(w.Start) {
			return Window{}, ErrInvalidWindow
		}
		w.Days = max(int(math.Ceil(w.End.Sub(w.Start).Hours()/24)), 1)
	}
	return w, nil
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DeadStockSince returns the start of the trailing dead stock horizon
func (w Window) DeadStockSince() time.Time {
	return w.End.AddDate(0, 0, -DeadStockLookbackDays)
}
