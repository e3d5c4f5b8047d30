package grpc

type GetWeekRequest struct {
	TechnicianID string `json:"technicianId"`
}

type Slot struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Day uses the canonical Monday=0 index.
type Day struct {
	Day   int    `json:"day"`
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

type GetWeekResponse struct {
	Days []Day `json:"days"`
}

type ResolveSlotsRequest struct {
	TechnicianID string `json:"technicianId"`
	// Date is YYYY-MM-DD.
	Date string `json:"date"`
}

type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ResolveSlotsResponse struct {
	Windows []Window `json:"windows"`
}

type GetAppointmentRequest struct {
	AppointmentID string `json:"appointmentId"`
	ActorID       string `json:"actorId"`
}

type Appointment struct {
	ID           string  `json:"id"`
	RequesterID  string  `json:"requesterId"`
	TechnicianID string  `json:"technicianId"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Status       string  `json:"status"`
	Rating       *int    `json:"rating,omitempty"`
	MeetingLink  *string `json:"meetingLink,omitempty"`
}

type GetAppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type ListTechnicianAppointmentsRequest struct {
	TechnicianID string `json:"technicianId"`
	// From and To are optional naive timestamps; an empty bound leaves the window open.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type ListTechnicianAppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}
