package domain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type WeeklySlot struct {
	bun.BaseModel `bun:"table:weekly_slots"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	OwnerID   string    `bun:"owner_id,notnull" json:"ownerId"`
	Day       Weekday   `bun:"day,notnull" json:"day"`
	Start     ClockTime `bun:"start_minute,notnull" json:"startTime"`
	End       ClockTime `bun:"end_minute,notnull" json:"endTime"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

func (s *WeeklySlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (s WeeklySlot) Validate() error {
	if s.OwnerID == "" {
		return ErrInvalidInput.WithMessage("owner is required")
	}
	if !s.Day.Valid() {
		return ErrInvalidRange.WithMessage(fmt.Sprintf("day must be between 0 and 6, got %d", s.Day))
	}
	if !s.Start.Valid() || !s.End.Valid() || s.Start == EndOfDay {
		return ErrInvalidRange.WithMessage("time of day must be between 00:00 and 24:00")
	}
	if s.End <= s.Start {
		return ErrInvalidRange.WithMessage("endTime must be after startTime")
	}
	return nil
}

// Conflicts reports whether both slots belong to the same owner and day and intersect.
func (s WeeklySlot) Conflicts(o WeeklySlot) bool {
	return s.OwnerID == o.OwnerID && s.Day == o.Day && ClockOverlaps(s.Start, s.End, o.Start, o.End)
}

// Week is a technician's template keyed by every weekday; empty days hold empty slices.
type Week map[Weekday][]WeeklySlot

func GroupByDay(slots []WeeklySlot) Week {
	week := make(Week, DaysPerWeek)
	for _, d := range AllWeekdays() {
		week[d] = []WeeklySlot{}
	}
	for _, s := range slots {
		if !s.Day.Valid() {
			continue
		}
		week[s.Day] = append(week[s.Day], s)
	}
	for _, d := range AllWeekdays() {
		day := week[d]
		sort.Slice(day, func(i, j int) bool { return day[i].Start < day[j].Start })
	}
	return week
}

// Flatten returns the week ordered by day then start.
func (w Week) Flatten() []WeeklySlot {
	out := make([]WeeklySlot, 0)
	for _, d := range AllWeekdays() {
		out = append(out, w[d]...)
	}
	return out
}
