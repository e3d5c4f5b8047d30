package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	RequesterID  string    `bun:"requester_id,notnull" json:"requesterId"`
	TechnicianID string    `bun:"technician_id,notnull" json:"technicianId"`
	StartTime    time.Time `bun:"start_at,notnull" json:"startDateTime"`
	EndTime      time.Time `bun:"end_at,notnull" json:"endDateTime"`
	Status       Status    `bun:"status,notnull" json:"status"`
	Rating       *int      `bun:"rating" json:"rating,omitempty"`
	MeetingLink  *string   `bun:"meeting_link" json:"meetingLink,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) Span() Span[time.Time] {
	return Span[time.Time]{Start: a.StartTime, End: a.EndTime}
}

func (a Appointment) Overlaps(start, end time.Time) bool {
	return TimeOverlaps(a.StartTime, a.EndTime, start, end)
}

// Involves reports whether actorID is a party to the appointment.
func (a Appointment) Involves(actorID string) bool {
	return actorID != "" && (a.RequesterID == actorID || a.TechnicianID == actorID)
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
