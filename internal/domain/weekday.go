package domain

import (
	"strconv"
	"time"
)

// Weekday is the canonical day index used inside the service: Monday=0 ... Sunday=6.
// Other encodings are translated at the transport boundary.
type Weekday int8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

const DaysPerWeek = 7

var weekdayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

func AllWeekdays() []Weekday {
	out := make([]Weekday, 0, DaysPerWeek)
	for d := Monday; d <= Sunday; d++ {
		out = append(out, d)
	}
	return out
}

// WeekdayOf returns the canonical weekday of t's civil date.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd - 1)
}

// DateOf truncates t to midnight of its civil date, keeping t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Naive keeps t's wall clock and drops its zone. All schedule arithmetic runs on
// naive values so that no implicit conversion happens between technician and requester.
func Naive(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location and returns it as a naive value.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return Naive(time.Now().In(loc))
}
