package rest

import (
	"fmt"
	"strings"
	"time"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/transport/rest/apierror"
)

const (
	// WireLayout is the naive timestamp format exchanged with clients.
	WireLayout = "2006-01-02T15:04:05"
	DateLayout = "2006-01-02"
)

// DayEncoding translates between the canonical Monday=0 weekday and the index a client
// sends. The legacy mobile client counts from Saturday.
type DayEncoding string

const (
	DaysISO      DayEncoding = "iso"
	DaysSaturday DayEncoding = "saturday"
)

func (e DayEncoding) offset() int {
	if e == DaysSaturday {
		return 2
	}
	return 0
}

func (e DayEncoding) Encode(d domain.Weekday) int {
	return (int(d) + e.offset()) % domain.DaysPerWeek
}

func (e DayEncoding) Decode(n int) (domain.Weekday, error) {
	if n < 0 || n >= domain.DaysPerWeek {
		return 0, domain.ErrInvalidRange.WithMessage(fmt.Sprintf("day %d must be between 0 and 6", n))
	}
	return domain.Weekday((n - e.offset() + domain.DaysPerWeek) % domain.DaysPerWeek), nil
}

// ParseWireTime accepts the naive wire layout and RFC 3339. An offset is dropped and its
// wall clock kept.
func ParseWireTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{WireLayout, time.RFC3339Nano, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Naive(t), nil
		}
	}
	return time.Time{}, apierror.InvalidInput(fmt.Sprintf("%s %q must look like %s", field, s, WireLayout))
}

func FormatWireTime(t time.Time) string {
	return domain.Naive(t).Format(WireLayout)
}

func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apierror.InvalidInput(fmt.Sprintf("%s %q must look like %s", field, s, DateLayout))
	}
	return t, nil
}
