package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"techsupport/backend/internal/domain"
)

const (
	wireLayout = "2006-01-02T15:04:05"
	dateLayout = "2006-01-02"
)

type weekReader interface {
	GetWeek(ctx context.Context, ownerID string) (domain.Week, error)
}

type slotResolver interface {
	Resolve(ctx context.Context, technicianID string, date time.Time) ([]domain.BookableSlot, error)
}

type appointmentReader interface {
	Get(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error)
	ListForTechnician(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error)
}

type Server struct {
	week  weekReader
	slots slotResolver
	appts appointmentReader
	log   *zap.Logger
}

func NewServer(week weekReader, slots slotResolver, appts appointmentReader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		week:  week,
		slots: slots,
		appts: appts,
		log:   log.With(zap.String("component", "grpc.scheduling")),
	}
}

func (s *Server) GetWeek(ctx context.Context, req *GetWeekRequest) (*GetWeekResponse, error) {
	log := s.log.With(zap.String("rpc", "GetWeek"))

	if req == nil || strings.TrimSpace(req.TechnicianID) == "" {
		log.Warn("invalid request", zap.String("reason", "missing_technician"))
		return nil, status.Error(codes.InvalidArgument, "technician_id is required")
	}

	week, err := s.week.GetWeek(ctx, req.TechnicianID)
	if err != nil {
		return nil, s.fail(log, err, zap.String("technician_id", req.TechnicianID))
	}

	out := &GetWeekResponse{Days: make([]Day, 0, domain.DaysPerWeek)}
	for _, d := range domain.AllWeekdays() {
		day := Day{Day: int(d), Name: d.String(), Slots: make([]Slot, 0, len(week[d]))}
		for _, slot := range week[d] {
			day.Slots = append(day.Slots, Slot{ID: slot.ID.String(), Start: slot.Start.String(), End: slot.End.String()})
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

func (s *Server) ResolveSlots(ctx context.Context, req *ResolveSlotsRequest) (*ResolveSlotsResponse, error) {
	log := s.log.With(zap.String("rpc", "ResolveSlots"))

	if req == nil || strings.TrimSpace(req.TechnicianID) == "" {
		log.Warn("invalid request", zap.String("reason", "missing_technician"))
		return nil, status.Error(codes.InvalidArgument, "technician_id is required")
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		log.Warn("invalid request", zap.String("reason", "invalid_date"), zap.String("technician_id", req.TechnicianID))
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}

	fragments, err := s.slots.Resolve(ctx, req.TechnicianID, date)
	if err != nil {
		return nil, s.fail(log, err, zap.String("technician_id", req.TechnicianID))
	}

	out := &ResolveSlotsResponse{Windows: make([]Window, 0, len(fragments))}
	for _, f := range fragments {
		out.Windows = append(out.Windows, Window{Start: f.Start.Format(wireLayout), End: f.End.Format(wireLayout)})
	}

	log.Debug("slots resolved",
		zap.String("technician_id", req.TechnicianID),
		zap.String("date", req.Date),
		zap.Int("count", len(out.Windows)),
	)
	return out, nil
}

func (s *Server) GetAppointment(ctx context.Context, req *GetAppointmentRequest) (*GetAppointmentResponse, error) {
	log := s.log.With(zap.String("rpc", "GetAppointment"))

	if req == nil || strings.TrimSpace(req.ActorID) == "" {
		log.Warn("invalid request", zap.String("reason", "missing_actor"))
		return nil, status.Error(codes.InvalidArgument, "actor_id is required")
	}
	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		log.Warn("invalid request", zap.String("reason", "invalid_uuid"), zap.String("actor_id", req.ActorID))
		return nil, status.Error(codes.InvalidArgument, "appointment_id must be a UUID")
	}

	appt, err := s.appts.Get(ctx, id, req.ActorID)
	if err != nil {
		return nil, s.fail(log, err, zap.String("appointment_id", id.String()), zap.String("actor_id", req.ActorID))
	}
	return &GetAppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func (s *Server) ListTechnicianAppointments(ctx context.Context, req *ListTechnicianAppointmentsRequest) (*ListTechnicianAppointmentsResponse, error) {
	log := s.log.With(zap.String("rpc", "ListTechnicianAppointments"))

	if req == nil || strings.TrimSpace(req.TechnicianID) == "" {
		log.Warn("invalid request", zap.String("reason", "missing_technician"))
		return nil, status.Error(codes.InvalidArgument, "technician_id is required")
	}
	from, err := optionalTime(req.From)
	if err != nil {
		log.Warn("invalid request", zap.String("reason", "invalid_from"), zap.String("technician_id", req.TechnicianID))
		return nil, status.Error(codes.InvalidArgument, "from must be YYYY-MM-DDTHH:MM:SS")
	}
	to, err := optionalTime(req.To)
	if err != nil {
		log.Warn("invalid request", zap.String("reason", "invalid_to"), zap.String("technician_id", req.TechnicianID))
		return nil, status.Error(codes.InvalidArgument, "to must be YYYY-MM-DDTHH:MM:SS")
	}

	appts, err := s.appts.ListForTechnician(ctx, req.TechnicianID, from, to)
	if err != nil {
		return nil, s.fail(log, err, zap.String("technician_id", req.TechnicianID))
	}

	out := &ListTechnicianAppointmentsResponse{Appointments: make([]Appointment, 0, len(appts))}
	for _, a := range appts {
		out.Appointments = append(out.Appointments, toAppointment(a))
	}
	log.Debug("appointments listed", zap.String("technician_id", req.TechnicianID), zap.Int("count", len(out.Appointments)))
	return out, nil
}

func (s *Server) fail(log *zap.Logger, err error, fields ...zap.Field) error {
	st := statusFromError(err)
	switch st.Code() {
	case codes.Internal, codes.Unknown:
		log.Error("rpc failed", append(fields, zap.Error(err))...)
	default:
		log.Info("rpc rejected", append(fields, zap.String("code", st.Code().String()), zap.String("reason", err.Error()))...)
	}
	return st.Err()
}

func statusFromError(err error) *status.Status {
	if code, ok := domain.CodeOf(err); ok {
		switch code {
		case "INVALID_INPUT", "INVALID_RANGE", "OVERLAP", "IN_PAST", "OUT_OF_RANGE":
			return status.New(codes.InvalidArgument, err.Error())
		case "NOT_FOUND":
			return status.New(codes.NotFound, err.Error())
		case "NOT_OWNER", "NOT_TECHNICIAN", "NOT_REQUESTER":
			return status.New(codes.PermissionDenied, err.Error())
		case "INVALID_STATE", "ALREADY_RATED", "UNAVAILABLE", "NOT_FINISHED", "IDEMPOTENCY_CONFLICT":
			return status.New(codes.FailedPrecondition, err.Error())
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, "request canceled")
	}
	return status.New(codes.Internal, "internal error")
}

func optionalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(wireLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func toAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:           a.ID.String(),
		RequesterID:  a.RequesterID,
		TechnicianID: a.TechnicianID,
		Start:        a.StartTime.Format(wireLayout),
		End:          a.EndTime.Format(wireLayout),
		Status:       a.Status.String(),
		Rating:       a.Rating,
		MeetingLink:  a.MeetingLink,
	}
}

// TimeoutInterceptor gives every unary call a deadline unless the caller already set one.
func TimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}
