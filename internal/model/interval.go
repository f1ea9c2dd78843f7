package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for campaign dates.  All dates are
// whole days; times of day are never significant in this subsystem.
const DateLayout = "2006-01-02"

// Interval is a closed day interval [Start, End] describing the window
// a campaign occupies on a material.  Both endpoints are inclusive: an
// assignment ending on a given day still holds its slot for the whole
// of that day, so an interval ending on day X and another starting on
// day X overlap.  This is deliberate: it prevents scheduling a
// dismount and a mount of the same physical device on the same day.
//
// Fields:
//  Start – first occupied day, normalized to UTC midnight.
//  End   – last occupied day, normalized to UTC midnight; never
//          before Start.
type Interval struct {
	Start time.Time // first day of the window (UTC midnight)
	End   time.Time // last day of the window (UTC midnight)
}

// NewInterval builds an interval from two days and validates ordering.
// Both endpoints are truncated to UTC midnight so that comparisons are
// purely day-based regardless of how the caller obtained the times.
func NewInterval(start, end time.Time) (Interval, error) {
	s := Day(start)
	e := Day(end)
	if e.Before(s) {
		return Interval{}, fmt.Errorf("interval end %s before start %s", e.Format(DateLayout), s.Format(DateLayout))
	}
	return Interval{Start: s, End: e}, nil
}

// IntervalFrom derives the campaign window for a plan starting on the
// given day: [start, start+durationDays].
func IntervalFrom(start time.Time, durationDays int) Interval {
	s := Day(start)
	return Interval{Start: s, End: s.AddDate(0, 0, durationDays)}
}

// Day truncates a timestamp to UTC midnight.  Every date entering the
// availability engine passes through here exactly once, at the boundary.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two closed intervals share at least one day:
// [s1,e1] and [s2,e2] overlap iff s1 <= e2 and s2 <= e1.
func (i Interval) Overlaps(o Interval) bool {
	return !i.Start.After(o.End) && !o.Start.After(i.End)
}

// Contains reports whether the given day falls inside the interval.
func (i Interval) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(i.Start) && !d.After(i.End)
}

// String renders the interval as "2006-01-02..2006-01-02" for logs.
func (i Interval) String() string {
	return i.Start.Format(DateLayout) + ".." + i.End.Format(DateLayout)
}
