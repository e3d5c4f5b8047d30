package domain

import (
	"cmp"
	"slices"
	"time"
)

// Span is a half-open range [Start, End) over any ordered type described by a compare func.
type Span[T any] struct {
	Start T
	End   T
}

// Overlaps reports whether a and b share at least one point. Empty or inverted spans
// never overlap anything.
func Overlaps[T any](compare func(x, y T) int, a, b Span[T]) bool {
	if compare(a.Start, a.End) >= 0 || compare(b.Start, b.End) >= 0 {
		return false
	}
	return compare(a.Start, b.End) < 0 && compare(b.Start, a.End) < 0
}

// Subtract removes every busy span from window and returns the remaining fragments in
// ascending order.
func Subtract[T any](compare func(x, y T) int, window Span[T], busy []Span[T]) []Span[T] {
	if compare(window.Start, window.End) >= 0 {
		return nil
	}

	sorted := make([]Span[T], 0, len(busy))
	for _, b := range busy {
		if Overlaps(compare, window, b) {
			sorted = append(sorted, b)
		}
	}
	slices.SortFunc(sorted, func(x, y Span[T]) int { return compare(x.Start, y.Start) })

	out := make([]Span[T], 0, len(sorted)+1)
	cursor := window.Start
	for _, b := range sorted {
		if compare(b.End, cursor) <= 0 {
			continue
		}
		if compare(b.Start, cursor) > 0 {
			out = append(out, Span[T]{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if compare(cursor, window.End) >= 0 {
			return out
		}
	}
	out = append(out, Span[T]{Start: cursor, End: window.End})
	return out
}

func CompareClock(a, b ClockTime) int { return cmp.Compare(a, b) }

func CompareTime(a, b time.Time) int { return a.Compare(b) }

func ClockOverlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return Overlaps(CompareClock, Span[ClockTime]{aStart, aEnd}, Span[ClockTime]{bStart, bEnd})
}

func TimeOverlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return Overlaps(CompareTime, Span[time.Time]{aStart, aEnd}, Span[time.Time]{bStart, bEnd})
}
