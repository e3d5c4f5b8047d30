package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a civil time-of-day in minutes since midnight. EndOfDay (24:00) is only
// meaningful as the exclusive end of a window.
type ClockTime int16

const EndOfDay ClockTime = 24 * 60

func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, ErrInvalidRange.WithMessage(fmt.Sprintf("invalid time of day %02d:%02d", hour, minute))
	}
	return ClockTime(hour*60 + minute), nil
}

// ParseClockTime accepts "HH:MM" and "HH:MM:SS" (seconds must be zero).
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidRange.WithMessage(fmt.Sprintf("time of day %q must be HH:MM", s))
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || len(p) == 0 || len(p) > 2 {
			return 0, ErrInvalidRange.WithMessage(fmt.Sprintf("time of day %q must be HH:MM", s))
		}
		nums[i] = n
	}
	if len(nums) == 3 && nums[2] != 0 {
		return 0, ErrInvalidRange.WithMessage(fmt.Sprintf("time of day %q must not carry seconds", s))
	}
	return NewClockTime(nums[0], nums[1])
}

func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places c on the civil date of day. 24:00 lands on the following midnight.
func (c ClockTime) On(day time.Time) time.Time {
	return DateOf(day).Add(time.Duration(c) * time.Minute)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c ClockTime) Value() (driver.Value, error) {
	return int64(c), nil
}

func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*c = ClockTime(v)
	case int32:
		*c = ClockTime(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return err
		}
		*c = ClockTime(n)
	case nil:
		*c = 0
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
	return nil
}
