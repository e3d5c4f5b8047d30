package domain

import (
	"sort"
	"time"
)

// BookableSlot is a concrete window on a civil date that no accepted or completed
// appointment consumes.
type BookableSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ResolveBookable turns the weekly windows of date's weekday into bookable fragments,
// cutting out every occupying appointment. Slots of other weekdays and appointments that
// do not occupy time are ignored, so callers may pass broader inputs.
func ResolveBookable(date time.Time, slots []WeeklySlot, appts []Appointment) []BookableSlot {
	day := DateOf(Naive(date))
	weekday := WeekdayOf(day)
	dayEnd := day.AddDate(0, 0, 1)

	busy := make([]Span[time.Time], 0, len(appts))
	for _, a := range appts {
		if !a.Status.Occupies() || !a.Overlaps(day, dayEnd) {
			continue
		}
		busy = append(busy, a.Span())
	}

	out := make([]BookableSlot, 0, len(slots))
	for _, s := range slots {
		if s.Day != weekday || s.End <= s.Start {
			continue
		}
		window := Span[time.Time]{Start: s.Start.On(day), End: s.End.On(day)}
		for _, f := range Subtract(CompareTime, window, busy) {
			out = append(out, BookableSlot{Start: f.Start, End: f.End})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Covers reports whether [start, end) fits inside the fragments. Fragments that touch,
// such as 09:00-12:00 and 12:00-17:00 or two windows meeting at midnight, count as one.
func Covers(fragments []BookableSlot, start, end time.Time) bool {
	for _, f := range MergeTouching(fragments) {
		if !start.Before(f.Start) && !end.After(f.End) {
			return true
		}
	}
	return false
}

// MergeTouching returns fragments sorted by start with touching or overlapping ones joined.
func MergeTouching(fragments []BookableSlot) []BookableSlot {
	sorted := make([]BookableSlot, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := make([]BookableSlot, 0, len(sorted))
	for _, f := range sorted {
		if n := len(out); n > 0 && !f.Start.After(out[n-1].End) {
			if f.End.After(out[n-1].End) {
				out[n-1].End = f.End
			}
			continue
		}
		out = append(out, f)
	}
	return out
}
