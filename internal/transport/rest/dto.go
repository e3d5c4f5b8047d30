package rest

import (
	"time"

	"github.com/google/uuid"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/service/technicians"
)

type addSlotRequest struct {
	Day       *int   `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

type createAppointmentRequest struct {
	TechSupportID string `json:"TechSupportId" validate:"required"`
	StartDateTime string `json:"StartDateTime" validate:"required"`
	EndDateTime   string `json:"EndDateTime" validate:"required"`
}

type rateRequest struct {
	Rating *int `json:"rating" validate:"required"`
}

type meetingLinkRequest struct {
	MeetingLink string `json:"meetingLink" validate:"required"`
}

type slotResponse struct {
	ID        uuid.UUID        `json:"id"`
	Day       int              `json:"day"`
	StartTime domain.ClockTime `json:"startTime"`
	EndTime   domain.ClockTime `json:"endTime"`
}

type bookableResponse struct {
	Date          string           `json:"date"`
	StartTime     domain.ClockTime `json:"startTime"`
	EndTime       domain.ClockTime `json:"endTime"`
	StartDateTime string           `json:"startDateTime"`
	EndDateTime   string           `json:"endDateTime"`
}

type appointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	RequesterID   string    `json:"requesterId"`
	TechnicianID  string    `json:"techSupportId"`
	StartDateTime string    `json:"startDateTime"`
	EndDateTime   string    `json:"endDateTime"`
	Status        int       `json:"status"`
	StatusName    string    `json:"statusName"`
	Rating        *int      `json:"rating"`
	MeetingLink   *string   `json:"meetingLink"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type acceptResponse struct {
	Appointment appointmentResponse   `json:"appointment"`
	Rejected    []appointmentResponse `json:"rejected"`
}

type technicianResponse struct {
	ID             string         `json:"id"`
	DisplayName    string         `json:"displayName"`
	Email          string         `json:"email,omitempty"`
	AvatarURL      string         `json:"avatarUrl,omitempty"`
	Availabilities []slotResponse `json:"availabilities"`
	AverageRating  float64        `json:"averageRating"`
	RatingCount    int            `json:"ratingCount"`
}

func (h *Handler) toSlot(s domain.WeeklySlot) slotResponse {
	return slotResponse{
		ID:        s.ID,
		Day:       h.days.Encode(s.Day),
		StartTime: s.Start,
		EndTime:   s.End,
	}
}

func (h *Handler) toSlots(slots []domain.WeeklySlot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, h.toSlot(s))
	}
	return out
}

func toBookable(date time.Time, fragments []domain.BookableSlot) []bookableResponse {
	day := domain.DateOf(date)
	out := make([]bookableResponse, 0, len(fragments))
	for _, f := range fragments {
		end := domain.ClockOf(f.End)
		if !domain.DateOf(f.End).Equal(day) {
			end = domain.EndOfDay
		}
		out = append(out, bookableResponse{
			Date:          day.Format(DateLayout),
			StartTime:     domain.ClockOf(f.Start),
			EndTime:       end,
			StartDateTime: FormatWireTime(f.Start),
			EndDateTime:   FormatWireTime(f.End),
		})
	}
	return out
}

func toAppointment(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:            a.ID,
		RequesterID:   a.RequesterID,
		TechnicianID:  a.TechnicianID,
		StartDateTime: FormatWireTime(a.StartTime),
		EndDateTime:   FormatWireTime(a.EndTime),
		Status:        int(a.Status),
		StatusName:    a.Status.String(),
		Rating:        a.Rating,
		MeetingLink:   a.MeetingLink,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toAppointments(appts []domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointment(a))
	}
	return out
}

func (h *Handler) toTechnician(p technicians.Profile) technicianResponse {
	return technicianResponse{
		ID:             p.ID,
		DisplayName:    p.DisplayName,
		Email:          p.Email,
		AvatarURL:      p.AvatarURL,
		Availabilities: h.toSlots(p.Availabilities),
		AverageRating:  p.AverageRating,
		RatingCount:    p.RatingCount,
	}
}
