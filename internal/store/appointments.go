package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"techsupport/backend/internal/domain"
)

type SlotReader interface {
	GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error)
	ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error)
}

// AppointmentReader lists appointments. A zero from or to leaves that side of the window open.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error)
	ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error)
}

// SchedulingTx is the view of the store inside a technician transaction.
// Writes that would break a schedule invariant fail with ErrConflict.
type SchedulingTx interface {
	SlotReader
	AppointmentReader

	InsertSlot(ctx context.Context, slot domain.WeeklySlot) (domain.WeeklySlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

type Store interface {
	SlotReader
	AppointmentReader

	ListSlotOwners(ctx context.Context) ([]string, error)
	RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error)

	// InTechnicianTransaction serializes fn against every other transaction for the same
	// technician. Nothing fn wrote is kept when it returns an error.
	InTechnicianTransaction(ctx context.Context, technicianID string, fn func(ctx context.Context, tx SchedulingTx) error) error
	Close() error
}

func TechnicianLockKey(technicianID string) string {
	return "technician:" + technicianID
}
