package slots

import (
	"context"
	"fmt"
	"time"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

type reader interface {
	store.SlotReader
	store.AppointmentReader
}

type Resolver struct {
	store reader
}

func NewResolver(s reader) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the bookable windows of technicianID on the civil date of date.
func (r *Resolver) Resolve(ctx context.Context, technicianID string, date time.Time) ([]domain.BookableSlot, error) {
	return Resolve(ctx, r.store, technicianID, date)
}

// Resolve is usable inside a technician transaction as well as against the store.
func Resolve(ctx context.Context, src reader, technicianID string, date time.Time) ([]domain.BookableSlot, error) {
	day := domain.DateOf(domain.Naive(date))

	weekly, err := src.ListSlots(ctx, technicianID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	appts, err := src.ListTechnicianAppointments(ctx, technicianID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return domain.ResolveBookable(day, weekly, appts), nil
}

// ResolveSpan returns the bookable windows of every civil date that [start, end) touches.
func ResolveSpan(ctx context.Context, src reader, technicianID string, start, end time.Time) ([]domain.BookableSlot, error) {
	first := domain.DateOf(domain.Naive(start))
	last := domain.Naive(end)

	var out []domain.BookableSlot
	for day := first; day.Before(last); day = day.AddDate(0, 0, 1) {
		fragments, err := Resolve(ctx, src, technicianID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, fragments...)
	}
	return out, nil
}
