// Package rest serves the scheduling operations to the mobile client over JSON.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"techsupport/backend/internal/auth"
	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/service/appointments"
	"techsupport/backend/internal/service/availability"
	"techsupport/backend/internal/service/technicians"
	"techsupport/backend/internal/transport/rest/apierror"
)

type availabilityService interface {
	AddSlot(ctx context.Context, in availability.AddSlotInput) (domain.WeeklySlot, error)
	RemoveSlot(ctx context.Context, slotID uuid.UUID, requesterID string) error
	ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error)
}

type slotResolver interface {
	Resolve(ctx context.Context, technicianID string, date time.Time) ([]domain.BookableSlot, error)
}

type appointmentService interface {
	Create(ctx context.Context, in appointments.CreateInput) (domain.Appointment, error)
	Accept(ctx context.Context, id uuid.UUID, actorID string) (appointments.AcceptResult, error)
	Reject(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error)
	Rate(ctx context.Context, id uuid.UUID, actorID string, rating int) (domain.Appointment, error)
	SetMeetingLink(ctx context.Context, id uuid.UUID, actorID, link string) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error)
	ListForRequester(ctx context.Context, requesterID string) ([]domain.Appointment, error)
	ListForTechnician(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error)
}

type technicianCatalog interface {
	List(ctx context.Context) ([]technicians.Profile, error)
}

type Handler struct {
	availability availabilityService
	slots        slotResolver
	appointments appointmentService
	technicians  technicianCatalog
	days         DayEncoding
	log          *zap.Logger
}

func NewHandler(avail availabilityService, slots slotResolver, appts appointmentService, techs technicianCatalog, days DayEncoding, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if days == "" {
		days = DaysISO
	}
	return &Handler{
		availability: avail,
		slots:        slots,
		appointments: appts,
		technicians:  techs,
		days:         days,
		log:          log.With(zap.String("component", "http")),
	}
}

func (h *Handler) mySchedule(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, "get schedule", err)
	}
	return h.schedule(c, actor.ID)
}

func (h *Handler) techSchedule(c echo.Context) error {
	return h.schedule(c, c.Param("techId"))
}

func (h *Handler) schedule(c echo.Context, ownerID string) error {
	slots, err := h.availability.ListSlots(c.Request().Context(), ownerID)
	if err != nil {
		return h.fail(c, "get schedule", err, zap.String("owner_id", ownerID))
	}
	return c.JSON(http.StatusOK, h.toSlots(slots))
}

func (h *Handler) addSlot(c echo.Context) error {
	const op = "add availability"
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	var req addSlotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(c, op, err, zap.String("owner_id", actor.ID))
	}

	day, err := h.days.Decode(*req.Day)
	if err != nil {
		return h.fail(c, op, err, zap.String("owner_id", actor.ID))
	}
	start, err := domain.ParseClockTime(req.StartTime)
	if err != nil {
		return h.fail(c, op, err, zap.String("owner_id", actor.ID))
	}
	end, err := domain.ParseClockTime(req.EndTime)
	if err != nil {
		return h.fail(c, op, err, zap.String("owner_id", actor.ID))
	}

	slot, err := h.availability.AddSlot(c.Request().Context(), availability.AddSlotInput{
		OwnerID: actor.ID,
		Day:     day,
		Start:   start,
		End:     end,
	})
	if err != nil {
		return h.fail(c, op, err, zap.String("owner_id", actor.ID), zap.Stringer("day", day))
	}

	h.log.Info("availability added",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", slot.OwnerID),
		zap.Stringer("day", slot.Day),
		zap.Stringer("start", slot.Start),
		zap.Stringer("end", slot.End),
	)
	return c.JSON(http.StatusCreated, h.toSlot(slot))
}

func (h *Handler) removeSlot(c echo.Context) error {
	const op = "delete availability"
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	if err := h.availability.RemoveSlot(c.Request().Context(), id, actor.ID); err != nil {
		return h.fail(c, op, err, zap.String("slot_id", id.String()), zap.String("actor_id", actor.ID))
	}
	h.log.Info("availability deleted", zap.String("slot_id", id.String()), zap.String("owner_id", actor.ID))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listTechnicians(c echo.Context) error {
	profiles, err := h.technicians.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list technicians", err)
	}
	out := make([]technicianResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, h.toTechnician(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) bookableSlots(c echo.Context) error {
	const op = "resolve slots"
	techID := c.Param("techId")
	date, err := ParseDate("date", c.QueryParam("date"))
	if err != nil {
		return h.fail(c, op, err, zap.String("technician_id", techID))
	}
	fragments, err := h.slots.Resolve(c.Request().Context(), techID, date)
	if err != nil {
		return h.fail(c, op, err, zap.String("technician_id", techID))
	}
	h.log.Debug("slots resolved",
		zap.String("technician_id", techID),
		zap.String("date", date.Format(DateLayout)),
		zap.Int("count", len(fragments)),
	)
	return c.JSON(http.StatusOK, toBookable(date, fragments))
}

func (h *Handler) createAppointment(c echo.Context) error {
	const op = "create appointment"
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	var req createAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(c, op, err, zap.String("requester_id", actor.ID))
	}
	start, err := ParseWireTime("StartDateTime", req.StartDateTime)
	if err != nil {
		return h.fail(c, op, err, zap.String("requester_id", actor.ID))
	}
	end, err := ParseWireTime("EndDateTime", req.EndDateTime)
	if err != nil {
		return h.fail(c, op, err, zap.String("requester_id", actor.ID))
	}

	appt, err := h.appointments.Create(c.Request().Context(), appointments.CreateInput{
		RequesterID:  actor.ID,
		TechnicianID: req.TechSupportID,
		StartTime:    start,
		EndTime:      end,

		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		return h.fail(c, op, err,
			zap.String("requester_id", actor.ID),
			zap.String("technician_id", req.TechSupportID),
			zap.Time("start_time", start),
			zap.Time("end_time", end),
		)
	}

	h.log.Info("appointment requested",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("requester_id", appt.RequesterID),
		zap.String("technician_id", appt.TechnicianID),
		zap.Time("start_time", appt.StartTime),
		zap.Time("end_time", appt.EndTime),
	)
	return c.JSON(http.StatusCreated, toAppointment(appt))
}

func (h *Handler) approve(c echo.Context) error {
	const op = "approve appointment"
	actor, id, err := actorAndID(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	res, err := h.appointments.Accept(c.Request().Context(), id, actor.ID)
	if err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()), zap.String("actor_id", actor.ID))
	}
	h.log.Info("appointment approved",
		zap.String("appointment_id", id.String()),
		zap.String("technician_id", actor.ID),
		zap.Int("cascade_rejected", len(res.Rejected)),
	)
	return c.JSON(http.StatusOK, acceptResponse{
		Appointment: toAppointment(res.Appointment),
		Rejected:    toAppointments(res.Rejected),
	})
}

func (h *Handler) reject(c echo.Context) error {
	return h.transition(c, "reject appointment", "appointment rejected", h.appointments.Reject)
}

func (h *Handler) complete(c echo.Context) error {
	return h.transition(c, "complete appointment", "appointment completed", h.appointments.Complete)
}

func (h *Handler) transition(c echo.Context, op, done string, fn func(ctx context.Context, id uuid.UUID, actorID string) (domain.Appointment, error)) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	appt, err := fn(c.Request().Context(), id, actor.ID)
	if err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()), zap.String("actor_id", actor.ID))
	}
	h.log.Info(done, zap.String("appointment_id", id.String()), zap.String("actor_id", actor.ID))
	return c.JSON(http.StatusOK, toAppointment(appt))
}

func (h *Handler) rate(c echo.Context) error {
	const op = "rate appointment"
	actor, id, err := actorAndID(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	var req rateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()))
	}
	appt, err := h.appointments.Rate(c.Request().Context(), id, actor.ID, *req.Rating)
	if err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()), zap.String("actor_id", actor.ID), zap.Int("rating", *req.Rating))
	}
	h.log.Info("appointment rated", zap.String("appointment_id", id.String()), zap.Int("rating", *req.Rating))
	return c.JSON(http.StatusOK, toAppointment(appt))
}

func (h *Handler) setMeetingLink(c echo.Context) error {
	const op = "set meeting link"
	actor, id, err := actorAndID(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	var req meetingLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()))
	}
	appt, err := h.appointments.SetMeetingLink(c.Request().Context(), id, actor.ID, req.MeetingLink)
	if err != nil {
		return h.fail(c, op, err, zap.String("appointment_id", id.String()), zap.String("actor_id", actor.ID))
	}
	h.log.Info("meeting link set", zap.String("appointment_id", id.String()))
	return c.JSON(http.StatusOK, toAppointment(appt))
}

func (h *Handler) getAppointment(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return h.fail(c, "get appointment", err)
	}
	appt, err := h.appointments.Get(c.Request().Context(), id, actor.ID)
	if err != nil {
		return h.fail(c, "get appointment", err, zap.String("appointment_id", id.String()))
	}
	return c.JSON(http.StatusOK, toAppointment(appt))
}

func (h *Handler) myAppointments(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, "list appointments", err)
	}
	appts, err := h.appointments.ListForRequester(c.Request().Context(), actor.ID)
	if err != nil {
		return h.fail(c, "list appointments", err, zap.String("requester_id", actor.ID))
	}
	return c.JSON(http.StatusOK, toAppointments(appts))
}

func (h *Handler) techAppointments(c echo.Context) error {
	const op = "technician schedule"
	actor, err := actorOf(c)
	if err != nil {
		return h.fail(c, op, err)
	}
	from, err := optionalTime(c, "from")
	if err != nil {
		return h.fail(c, op, err)
	}
	to, err := optionalTime(c, "to")
	if err != nil {
		return h.fail(c, op, err)
	}
	appts, err := h.appointments.ListForTechnician(c.Request().Context(), actor.ID, from, to)
	if err != nil {
		return h.fail(c, op, err, zap.String("technician_id", actor.ID))
	}
	return c.JSON(http.StatusOK, toAppointments(appts))
}

// fail writes the error body for err and logs at a level matching who is at fault.
func (h *Handler) fail(c echo.Context, op string, err error, fields ...zap.Field) error {
	apiErr := apierror.FromError(err)
	fields = append(fields, zap.String("op", op), zap.String("code", apiErr.Code))
	switch {
	case apiErr.Status >= http.StatusInternalServerError:
		h.log.Error(op+" failed", append(fields, zap.Error(err))...)
	case apiErr.Status == http.StatusConflict:
		h.log.Info(op+" conflict", fields...)
	default:
		h.log.Warn("invalid request", append(fields, zap.String("reason", err.Error()))...)
	}
	return c.JSON(apiErr.Status, apiErr)
}

func actorOf(c echo.Context) (auth.Actor, error) {
	actor, ok := auth.ActorFrom(c)
	if !ok || actor.ID == "" {
		return auth.Actor{}, apierror.Unauthorized
	}
	return actor, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.InvalidInput("id must be a UUID")
	}
	return id, nil
}

func actorAndID(c echo.Context) (auth.Actor, uuid.UUID, error) {
	actor, err := actorOf(c)
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	id, err := pathID(c)
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	return actor, id, nil
}

// optionalTime reads a query bound given as a date or a wire timestamp. Missing bounds stay
// zero, which leaves that side of the window open.
func optionalTime(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if len(raw) == len(DateLayout) {
		return ParseDate(name, raw)
	}
	return ParseWireTime(name, raw)
}

func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apierror.MalformedBody
	}
	if err := c.Validate(dst); err != nil {
		return apierror.InvalidInput(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func idempotencyKey(c echo.Context) string {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		key = c.Request().Header.Get("X-Idempotency-Key")
	}
	return strings.TrimSpace(key)
}
