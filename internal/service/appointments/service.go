package appointments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/notify"
	"techsupport/backend/internal/service/slots"
	"techsupport/backend/internal/store"
)

type Policy struct {
	// AllowEarlyCompletion lets a technician complete an accepted appointment before it ends.
	AllowEarlyCompletion bool
}

type Service struct {
	store    store.Store
	clock    domain.Clock
	notifier notify.Notifier
	policy   Policy
	log      *zap.Logger
}

func NewService(s store.Store, clock domain.Clock, notifier notify.Notifier, policy Policy, log *zap.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{Location: time.Local}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &Service{
		store:    s,
		clock:    clock,
		notifier: notifier,
		policy:   policy,
		log:      log.With(zap.String("component", "appointments")),
	}
}

type CreateInput struct {
	RequesterID  string
	TechnicianID string
	StartTime    time.Time
	EndTime      time.Time
	// IdempotencyKey makes retries of the same request return the first result.
	IdempotencyKey string
}

const maxIdempotencyKeyLen = 256

// idempotentID derives a stable appointment id from the requester and their key.
func idempotentID(requesterID, key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("techsupport:create_appointment:"+requesterID+":"+key))
}

func sameRequest(existing, in domain.Appointment) bool {
	return existing.RequesterID == in.RequesterID &&
		existing.TechnicianID == in.TechnicianID &&
		existing.StartTime.Equal(in.StartTime) &&
		existing.EndTime.Equal(in.EndTime)
}

// Create records a Pending request. Availability is checked when the technician accepts,
// not here. A repeated IdempotencyKey returns the appointment the first call created.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	requester := strings.TrimSpace(in.RequesterID)
	technician := strings.TrimSpace(in.TechnicianID)
	if requester == "" || technician == "" {
		return domain.Appointment{}, domain.ErrInvalidInput.WithMessage("requester and technician are required")
	}
	if requester == technician {
		return domain.Appointment{}, domain.ErrInvalidInput.WithMessage("you cannot book an appointment with yourself")
	}

	start := domain.Naive(in.StartTime)
	end := domain.Naive(in.EndTime)
	if !end.After(start) {
		return domain.Appointment{}, domain.ErrInvalidRange.WithMessage("endDateTime must be after startDateTime")
	}
	if start.Before(s.clock.Now()) {
		return domain.Appointment{}, domain.ErrInPast
	}

	appt := domain.Appointment{
		RequesterID:  requester,
		TechnicianID: technician,
		StartTime:    start,
		EndTime:      end,
		Status:       domain.StatusPending,
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > maxIdempotencyKeyLen {
			return domain.Appointment{}, domain.ErrInvalidInput.WithMessage("idempotency key too long")
		}
		appt.ID = idempotentID(requester, key)
	}

	var (
		out      domain.Appointment
		replayed bool
	)
	err := s.store.InTechnicianTransaction(ctx, technician, func(ctx context.Context, tx store.SchedulingTx) error {
		if key != "" {
			existing, err := tx.GetAppointment(ctx, appt.ID)
			switch {
			case err == nil:
				if !sameRequest(existing, appt) {
					return domain.ErrIdempotencyConflict
				}
				out, replayed = existing, true
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("lookup appointment by idempotency key: %w", err)
			}
		}

		created, err := tx.InsertAppointment(ctx, appt)
		if key != "" && errors.Is(err, store.ErrConflict) {
			// The same key raced in under another technician's lock.
			return domain.ErrIdempotencyConflict
		}
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	if replayed {
		s.log.Info("appointment create replayed",
			zap.String("appointment_id", out.ID.String()),
			zap.String("requester_id", out.RequesterID),
		)
		return out, nil
	}

	s.notify(ctx, notify.Event{Kind: notify.KindRequested, Recipient: out.TechnicianID, Appointment: out})
	return out, nil
}

type AcceptResult struct {
	Appointment domain.Appointment
	// Rejected holds the overlapping pending requests rejected by the accept.
	Rejected []domain.Appointment
}

func (s *Service) Accept(ctx context.Context, id uuid.UUID, actorID string) (AcceptResult, error) {
	var res AcceptResult
	appt, err := s.transition(ctx, id, func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
		if appt.TechnicianID != actorID {
			return domain.Appointment{}, domain.ErrNotTechnician
		}
		if !appt.Status.CanTransitionTo(domain.StatusAccepted) {
			return domain.Appointment{}, domain.ErrInvalidState.WithMessage(fmt.Sprintf("cannot accept a %s appointment", appt.Status))
		}
		if appt.StartTime.Before(s.clock.Now()) {
			return domain.Appointment{}, domain.ErrInPast.WithMessage("appointment start has already passed")
		}

		fragments, err := slots.ResolveSpan(ctx, tx, appt.TechnicianID, appt.StartTime, appt.EndTime)
		if err != nil {
			return domain.Appointment{}, err
		}
		if !domain.Covers(fragments, appt.StartTime, appt.EndTime) {
			return domain.Appointment{}, domain.ErrUnavailable
		}

		appt.Status = domain.StatusAccepted
		accepted, err := tx.UpdateAppointment(ctx, appt)
		if errors.Is(err, store.ErrConflict) {
			return domain.Appointment{}, domain.ErrUnavailable
		}
		if err != nil {
			return domain.Appointment{}, fmt.Errorf("accept appointment: %w", err)
		}

		overlapping, err := tx.ListTechnicianAppointments(ctx, appt.TechnicianID, appt.StartTime, appt.EndTime)
		if err != nil {
			return domain.Appointment{}, fmt.Errorf("list overlapping appointments: %w", err)
		}
		res.Rejected = res.Rejected[:0]
		for _, other := range overlapping {
			if other.ID == appt.ID || other.Status != domain.StatusPending || !other.Overlaps(appt.StartTime, appt.EndTime) {
				continue
			}
			other.Status = domain.StatusRejected
			rejected, err := tx.UpdateAppointment(ctx, other)
			if err != nil {
				return domain.Appointment{}, fmt.Errorf("reject overlapping appointment %s: %w", other.ID, err)
			}
			res.Rejected = append(res.Rejected, rejected)
		}
		return accepted, nil
	})
	if err != nil {
		return AcceptResult{}, err
	}
	res.Appointment = appt

	s.log.Info("appointment accepted",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("technician_id", appt.TechnicianID),
		zap.Int("cascade_rejected", len(res.Rejected)),
	)
	s.notify(ctx, notify.Event{Kind: notify.KindAccepted, Recipient: appt.RequesterID, Appointment: appt})
	for _, r := range res.Rejected {
		s.notify(ctx, notify.Event{Kind: notify.KindRejected, Recipient: r.RequesterID, Appointment: r, Cascade: true})
	}
	return res, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error) {
	appt, err := s.transition(ctx, id, func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
		if appt.TechnicianID != actorID {
			return domain.Appointment{}, domain.ErrNotTechnician
		}
		if !appt.Status.CanTransitionTo(domain.StatusRejected) {
			return domain.Appointment{}, domain.ErrInvalidState.WithMessage(fmt.Sprintf("cannot reject a %s appointment", appt.Status))
		}
		appt.Status = domain.StatusRejected
		return s.update(ctx, tx, appt)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.notify(ctx, notify.Event{Kind: notify.KindRejected, Recipient: appt.RequesterID, Appointment: appt})
	return appt, nil
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error) {
	appt, err := s.transition(ctx, id, func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
		if appt.TechnicianID != actorID {
			return domain.Appointment{}, domain.ErrNotTechnician
		}
		if !appt.Status.CanTransitionTo(domain.StatusCompleted) {
			return domain.Appointment{}, domain.ErrInvalidState.WithMessage(fmt.Sprintf("cannot complete a %s appointment", appt.Status))
		}
		if !s.policy.AllowEarlyCompletion && s.clock.Now().Before(appt.EndTime) {
			return domain.Appointment{}, domain.ErrNotFinished
		}
		appt.Status = domain.StatusCompleted
		return s.update(ctx, tx, appt)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.notify(ctx, notify.Event{Kind: notify.KindCompleted, Recipient: appt.RequesterID, Appointment: appt})
	return appt, nil
}

// Rate attaches the requester's single rating to a completed appointment.
func (s *Service) Rate(ctx context.Context, id uuid.UUID, actorID string, rating int) (domain.Appointment, error) {
	appt, err := s.transition(ctx, id, func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
		if appt.RequesterID != actorID {
			return domain.Appointment{}, domain.ErrNotRequester
		}
		if appt.Status != domain.StatusCompleted {
			return domain.Appointment{}, domain.ErrInvalidState.WithMessage("only completed appointments can be rated")
		}
		if appt.Rating != nil {
			return domain.Appointment{}, domain.ErrAlreadyRated
		}
		if !domain.ValidRating(rating) {
			return domain.Appointment{}, domain.ErrOutOfRange
		}
		r := rating
		appt.Rating = &r
		return s.update(ctx, tx, appt)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.notify(ctx, notify.Event{Kind: notify.KindRated, Recipient: appt.TechnicianID, Appointment: appt})
	return appt, nil
}

func (s *Service) SetMeetingLink(ctx context.Context, id uuid.UUID, actorID, link string) (domain.Appointment, error) {
	link = strings.TrimSpace(link)
	if !validMeetingLink(link) {
		return domain.Appointment{}, domain.ErrInvalidInput.WithMessage("meetingLink must be an absolute http or https URL")
	}

	appt, err := s.transition(ctx, id, func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
		if appt.TechnicianID != actorID {
			return domain.Appointment{}, domain.ErrNotTechnician
		}
		if appt.Status != domain.StatusAccepted {
			return domain.Appointment{}, domain.ErrInvalidState.WithMessage("a meeting link can only be set on an accepted appointment")
		}
		appt.MeetingLink = &link
		return s.update(ctx, tx, appt)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.notify(ctx, notify.Event{Kind: notify.KindMeetingLink, Recipient: appt.RequesterID, Appointment: appt})
	return appt, nil
}

// Get hides appointments the actor is not a party to behind NOT_FOUND.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Appointment{}, domain.ErrNotFound.WithMessage("appointment not found")
	}
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	if !appt.Involves(actorID) {
		return domain.Appointment{}, domain.ErrNotFound.WithMessage("appointment not found")
	}
	return appt, nil
}

func (s *Service) ListForRequester(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	appts, err := s.store.ListRequesterAppointments(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requester appointments: %w", err)
	}
	return appts, nil
}

// ListForTechnician returns the technician's appointments intersecting [from, to).
// A zero bound leaves that side open.
func (s *Service) ListForTechnician(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	if !from.IsZero() {
		from = domain.Naive(from)
	}
	if !to.IsZero() {
		to = domain.Naive(to)
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, domain.ErrInvalidRange.WithMessage("to must be after from")
	}
	appts, err := s.store.ListTechnicianAppointments(ctx, technicianID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list technician appointments: %w", err)
	}
	return appts, nil
}

type mutation func(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error)

// transition loads the appointment to find its technician, then re-reads and mutates it
// inside that technician's transaction.
func (s *Service) transition(ctx context.Context, id uuid.UUID, fn mutation) (domain.Appointment, error) {
	current, err := s.store.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Appointment{}, domain.ErrNotFound.WithMessage("appointment not found")
	}
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}

	var out domain.Appointment
	err = s.store.InTechnicianTransaction(ctx, current.TechnicianID, func(ctx context.Context, tx store.SchedulingTx) error {
		appt, err := tx.GetAppointment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrNotFound.WithMessage("appointment not found")
		}
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		updated, err := fn(ctx, tx, appt)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (s *Service) update(ctx context.Context, tx store.SchedulingTx, appt domain.Appointment) (domain.Appointment, error) {
	updated, err := tx.UpdateAppointment(ctx, appt)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	return updated, nil
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("notification failed",
			zap.Error(err),
			zap.String("kind", string(ev.Kind)),
			zap.String("appointment_id", ev.Appointment.ID.String()),
		)
	}
}

func validMeetingLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
