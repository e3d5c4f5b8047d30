package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

type Service struct {
	store store.Store
	log   *zap.Logger
}

func NewService(s store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log.With(zap.String("component", "availability"))}
}

type AddSlotInput struct {
	OwnerID string
	Day     domain.Weekday
	Start   domain.ClockTime
	End     domain.ClockTime
}

func (s *Service) AddSlot(ctx context.Context, in AddSlotInput) (domain.WeeklySlot, error) {
	slot := domain.WeeklySlot{
		OwnerID: in.OwnerID,
		Day:     in.Day,
		Start:   in.Start,
		End:     in.End,
	}
	if err := slot.Validate(); err != nil {
		return domain.WeeklySlot{}, err
	}

	var out domain.WeeklySlot
	err := s.store.InTechnicianTransaction(ctx, in.OwnerID, func(ctx context.Context, tx store.SchedulingTx) error {
		existing, err := tx.ListSlots(ctx, in.OwnerID)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		for _, e := range existing {
			if e.Conflicts(slot) {
				return domain.ErrOverlap.WithMessage(fmt.Sprintf("%s %s-%s overlaps existing window %s-%s", slot.Day, slot.Start, slot.End, e.Start, e.End))
			}
		}

		created, err := tx.InsertSlot(ctx, slot)
		if errors.Is(err, store.ErrConflict) {
			return domain.ErrOverlap
		}
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.WeeklySlot{}, err
	}

	s.log.Debug("slot added",
		zap.String("slot_id", out.ID.String()),
		zap.String("owner_id", out.OwnerID),
		zap.Stringer("day", out.Day),
	)
	return out, nil
}

// RemoveSlot deletes a window. Appointments already booked inside it are left alone.
func (s *Service) RemoveSlot(ctx context.Context, slotID uuid.UUID, requesterID string) error {
	// Only the owner may delete, so the requester's lock is the owner's lock whenever
	// the delete can succeed.
	return s.store.InTechnicianTransaction(ctx, requesterID, func(ctx context.Context, tx store.SchedulingTx) error {
		slot, err := tx.GetSlot(ctx, slotID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound.WithMessage("availability window not found")
		}
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot.OwnerID != requesterID {
			return domain.ErrNotOwner
		}

		err = tx.DeleteSlot(ctx, slotID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound.WithMessage("availability window not found")
		}
		if err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
}

func (s *Service) GetWeek(ctx context.Context, ownerID string) (domain.Week, error) {
	slots, err := s.store.ListSlots(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return domain.GroupByDay(slots), nil
}

func (s *Service) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	week, err := s.GetWeek(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return week.Flatten(), nil
}
