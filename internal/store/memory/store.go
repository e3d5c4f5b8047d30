// Package memory is a process-local store used by tests and the memory database driver.
// It enforces the same invariants the Postgres exclusion constraints do.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

type state struct {
	slots map[uuid.UUID]domain.WeeklySlot
	appts map[uuid.UUID]domain.Appointment
}

func (s state) clone() state {
	out := state{
		slots: make(map[uuid.UUID]domain.WeeklySlot, len(s.slots)),
		appts: make(map[uuid.UUID]domain.Appointment, len(s.appts)),
	}
	for k, v := range s.slots {
		out.slots[k] = v
	}
	for k, v := range s.appts {
		out.appts[k] = v
	}
	return out
}

type Store struct {
	mu    sync.RWMutex
	state state
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		state: state{
			slots: make(map[uuid.UUID]domain.WeeklySlot),
			appts: make(map[uuid.UUID]domain.Appointment),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// InTechnicianTransaction serializes all transactions, not just those of one technician.
func (s *Store) InTechnicianTransaction(ctx context.Context, technicianID string, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(ctx, &txView{state: snapshot, now: s.now}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) read() *txView {
	return &txView{state: s.state, now: s.now}
}

func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetSlot(ctx, id)
}

func (s *Store) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListSlots(ctx, ownerID)
}

func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetAppointment(ctx, id)
}

func (s *Store) ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListTechnicianAppointments(ctx, technicianID, from, to)
}

func (s *Store) ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListRequesterAppointments(ctx, requesterID)
}

func (s *Store) ListSlotOwners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, slot := range s.state.slots {
		if _, ok := seen[slot.OwnerID]; ok {
			continue
		}
		seen[slot.OwnerID] = struct{}{}
		out = append(out, slot.OwnerID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appts := make([]domain.Appointment, 0, len(s.state.appts))
	for _, a := range s.state.appts {
		appts = append(appts, a)
	}
	byTech := domain.SummarizeRatings(appts)
	out := make([]domain.RatingSummary, 0, len(byTech))
	for _, summary := range byTech {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TechnicianID < out[j].TechnicianID })
	return out, nil
}

type txView struct {
	state state
	now   func() time.Time
}

func (v *txView) GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error) {
	slot, ok := v.state.slots[id]
	if !ok {
		return domain.WeeklySlot{}, store.ErrNotFound
	}
	return slot, nil
}

func (v *txView) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	out := make([]domain.WeeklySlot, 0)
	for _, slot := range v.state.slots {
		if slot.OwnerID == ownerID {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (v *txView) InsertSlot(ctx context.Context, slot domain.WeeklySlot) (domain.WeeklySlot, error) {
	if slot.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.WeeklySlot{}, err
		}
		slot.ID = id
	}
	if _, ok := v.state.slots[slot.ID]; ok {
		return domain.WeeklySlot{}, store.ErrConflict
	}
	for _, existing := range v.state.slots {
		if existing.Conflicts(slot) {
			return domain.WeeklySlot{}, store.ErrConflict
		}
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = v.now()
	}
	v.state.slots[slot.ID] = slot
	return slot, nil
}

func (v *txView) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	if _, ok := v.state.slots[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.state.slots, id)
	return nil
}

func (v *txView) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, ok := v.state.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (v *txView) ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	out := make([]domain.Appointment, 0)
	for _, a := range v.state.appts {
		if a.TechnicianID != technicianID {
			continue
		}
		if !to.IsZero() && !a.StartTime.Before(to) {
			continue
		}
		if !from.IsZero() && !a.EndTime.After(from) {
			continue
		}
		out = append(out, a)
	}
	sortByStart(out)
	return out, nil
}

func (v *txView) ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	out := make([]domain.Appointment, 0)
	for _, a := range v.state.appts {
		if a.RequesterID == requesterID {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (v *txView) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	if _, ok := v.state.appts[appt.ID]; ok {
		return domain.Appointment{}, store.ErrConflict
	}
	if v.occupiedByOther(appt) {
		return domain.Appointment{}, store.ErrConflict
	}
	now := v.now()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	v.state.appts[appt.ID] = appt
	return appt, nil
}

func (v *txView) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	existing, ok := v.state.appts[appt.ID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	existing.Status = appt.Status
	existing.Rating = appt.Rating
	existing.MeetingLink = appt.MeetingLink
	if v.occupiedByOther(existing) {
		return domain.Appointment{}, store.ErrConflict
	}
	existing.UpdatedAt = v.now()
	v.state.appts[appt.ID] = existing
	return existing, nil
}

func (v *txView) occupiedByOther(appt domain.Appointment) bool {
	if !appt.Status.Occupies() {
		return false
	}
	for _, other := range v.state.appts {
		if other.ID == appt.ID || other.TechnicianID != appt.TechnicianID || !other.Status.Occupies() {
			continue
		}
		if other.Overlaps(appt.StartTime, appt.EndTime) {
			return true
		}
	}
	return false
}

func sortByStart(appts []domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].StartTime.Equal(appts[j].StartTime) {
			return appts[i].StartTime.Before(appts[j].StartTime)
		}
		return appts[i].ID.String() < appts[j].ID.String()
	})
}
