package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"techsupport/backend/internal/auth"
	"techsupport/backend/internal/directory"
	"techsupport/backend/internal/notify"
	"techsupport/backend/internal/service/appointments"
	"techsupport/backend/internal/service/availability"
	"techsupport/backend/internal/service/slots"
	"techsupport/backend/internal/service/technicians"
	"techsupport/backend/internal/store/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) count(kind notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type api struct {
	e        *echo.Echo
	tech     string
	req      string
	notifier *recordingNotifier
}

func newAPI(t *testing.T, policy appointments.Policy) *api {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", "techsupport")
	if err != nil {
		t.Fatalf("NewTokens error: %v", err)
	}
	mint := func(sub string) string {
		raw, err := tokens.Mint(sub, "", time.Hour)
		if err != nil {
			t.Fatalf("Mint error: %v", err)
		}
		return raw
	}

	s := memory.New()
	rec := &recordingNotifier{}
	clock := fixedClock{now: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)}
	h := NewHandler(
		availability.NewService(s, nil),
		slots.NewResolver(s),
		appointments.NewService(s, clock, rec, policy, nil),
		technicians.NewService(directory.NewOwners(s), s, nil),
		DaysSaturday,
		nil,
	)
	return &api{
		e:        NewServer(h, tokens, time.Second, nil),
		tech:     mint("tech"),
		req:      mint("req"),
		notifier: rec,
	}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithHeader(t, method, path, token, body, nil)
}

func (a *api) doWithHeader(t *testing.T, method, path, token string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range header {
		r.Header[k] = v
	}
	w := httptest.NewRecorder()
	a.e.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	body := decode[map[string]string](t, w)
	if body["code"] != code {
		t.Fatalf("code = %q, want %q (message %q)", body["code"], code, body["message"])
	}
}

func TestHealthzAndAuth(t *testing.T) {
	a := newAPI(t, appointments.Policy{})

	expect(t, a.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK, "")
	expect(t, a.do(t, http.MethodGet, "/api/TechSupport/Schedule", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expect(t, a.do(t, http.MethodGet, "/api/TechSupport/Schedule", "garbage", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expect(t, a.do(t, http.MethodGet, "/nope", "", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestAddAvailability_Validation(t *testing.T) {
	a := newAPI(t, appointments.Policy{})
	const path = "/api/TechSupport/Add-Availabile"

	expect(t, a.do(t, http.MethodPost, path, a.tech, map[string]any{"startTime": "09:00", "endTime": "10:00"}), http.StatusBadRequest, "INVALID_INPUT")
	expect(t, a.do(t, http.MethodPost, path, a.tech, map[string]any{"day": 9, "startTime": "09:00", "endTime": "10:00"}), http.StatusBadRequest, "INVALID_RANGE")
	expect(t, a.do(t, http.MethodPost, path, a.tech, map[string]any{"day": 2, "startTime": "10:00", "endTime": "09:00"}), http.StatusBadRequest, "INVALID_RANGE")
	expect(t, a.do(t, http.MethodPost, path, a.tech, map[string]any{"day": 2, "startTime": "nine", "endTime": "10:00"}), http.StatusBadRequest, "INVALID_RANGE")
	expect(t, a.do(t, http.MethodPost, path, a.tech, `{"day":`), http.StatusBadRequest, "INVALID_INPUT")
}

func TestBookingFlow(t *testing.T) {
	a := newAPI(t, appointments.Policy{AllowEarlyCompletion: true})

	// Monday is 2 in the Saturday-based encoding.
	w := a.do(t, http.MethodPost, "/api/TechSupport/Add-Availabile", a.tech, map[string]any{"day": 2, "startTime": "09:00", "endTime": "17:00"})
	expect(t, w, http.StatusCreated, "")
	slot := decode[slotResponse](t, w)
	if slot.Day != 2 || slot.StartTime.String() != "09:00" {
		t.Fatalf("slot = %+v, want day 2 from 09:00", slot)
	}
	expect(t, a.do(t, http.MethodPost, "/api/TechSupport/Add-Availabile", a.tech, map[string]any{"day": 2, "startTime": "16:00", "endTime": "18:00"}), http.StatusBadRequest, "OVERLAP")

	w = a.do(t, http.MethodGet, "/api/TechSupport/tech/Schedule", a.req, nil)
	expect(t, w, http.StatusOK, "")
	if got := decode[[]slotResponse](t, w); len(got) != 1 || got[0].ID != slot.ID {
		t.Fatalf("schedule = %+v, want the one slot", got)
	}

	create := func(start, end string) appointmentResponse {
		t.Helper()
		w := a.do(t, http.MethodPost, "/api/Appointment/create", a.req, map[string]string{
			"TechSupportId": "tech",
			"StartDateTime": start,
			"EndDateTime":   end,
		})
		expect(t, w, http.StatusCreated, "")
		return decode[appointmentResponse](t, w)
	}
	first := create("2030-01-07T10:00:00", "2030-01-07T11:00:00")
	second := create("2030-01-07T10:30:00", "2030-01-07T11:30:00")
	if first.Status != 0 || first.StatusName != "Pending" {
		t.Fatalf("created status = %d %s, want 0 Pending", first.Status, first.StatusName)
	}

	expect(t, a.do(t, http.MethodPost, "/api/Appointment/approve/"+first.ID.String(), a.req, nil), http.StatusForbidden, "NOT_TECHNICIAN")

	w = a.do(t, http.MethodPost, "/api/Appointment/approve/"+first.ID.String(), a.tech, nil)
	expect(t, w, http.StatusOK, "")
	accepted := decode[acceptResponse](t, w)
	if accepted.Appointment.Status != 1 || len(accepted.Rejected) != 1 || accepted.Rejected[0].ID != second.ID {
		t.Fatalf("accept = %+v, want accepted with second rejected", accepted)
	}
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/reject/"+second.ID.String(), a.tech, nil), http.StatusConflict, "INVALID_STATE")

	w = a.do(t, http.MethodGet, "/api/TechSupport/tech/slots?date=2030-01-07", a.req, nil)
	expect(t, w, http.StatusOK, "")
	fragments := decode[[]bookableResponse](t, w)
	if len(fragments) != 2 ||
		fragments[0].StartTime.String() != "09:00" || fragments[0].EndTime.String() != "10:00" ||
		fragments[1].StartTime.String() != "11:00" || fragments[1].EndTime.String() != "17:00" {
		t.Fatalf("fragments = %+v, want 09:00-10:00 and 11:00-17:00", fragments)
	}
	expect(t, a.do(t, http.MethodGet, "/api/TechSupport/tech/slots?date=monday", a.req, nil), http.StatusBadRequest, "INVALID_INPUT")

	w = a.do(t, http.MethodPut, "/api/Appointment/meeting-link/"+first.ID.String(), a.tech, map[string]string{"meetingLink": "https://meet.example.com/abc"})
	expect(t, w, http.StatusOK, "")
	if got := decode[appointmentResponse](t, w); got.MeetingLink == nil || *got.MeetingLink != "https://meet.example.com/abc" {
		t.Fatalf("meeting link = %v, want the link", got.MeetingLink)
	}

	expect(t, a.do(t, http.MethodPost, "/api/Appointment/rate/"+first.ID.String(), a.req, map[string]int{"rating": 5}), http.StatusConflict, "INVALID_STATE")
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/complete/"+first.ID.String(), a.tech, nil), http.StatusOK, "")
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/rate/"+first.ID.String(), a.req, map[string]int{"rating": 6}), http.StatusBadRequest, "OUT_OF_RANGE")
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/rate/"+first.ID.String(), a.tech, map[string]int{"rating": 5}), http.StatusForbidden, "NOT_REQUESTER")
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/rate/"+first.ID.String(), a.req, map[string]int{"rating": 5}), http.StatusOK, "")
	expect(t, a.do(t, http.MethodPost, "/api/Appointment/rate/"+first.ID.String(), a.req, map[string]int{"rating": 4}), http.StatusConflict, "ALREADY_RATED")

	w = a.do(t, http.MethodGet, "/api/Appointment/myAppointment", a.req, nil)
	expect(t, w, http.StatusOK, "")
	mine := decode[[]appointmentResponse](t, w)
	if len(mine) != 2 || mine[0].Status != 3 || mine[1].Status != 2 {
		t.Fatalf("my appointments = %+v, want completed then rejected", mine)
	}

	w = a.do(t, http.MethodGet, "/api/Appointment/tech/schedule?from=2030-01-07&to=2030-01-08", a.tech, nil)
	expect(t, w, http.StatusOK, "")
	if got := decode[[]appointmentResponse](t, w); len(got) != 2 {
		t.Fatalf("tech schedule = %+v, want 2 entries", got)
	}
	expect(t, a.do(t, http.MethodGet, "/api/Appointment/tech/schedule?from=2030-01-08&to=2030-01-07", a.tech, nil), http.StatusBadRequest, "INVALID_RANGE")

	expect(t, a.do(t, http.MethodGet, "/api/Appointment/"+first.ID.String(), a.req, nil), http.StatusOK, "")
	stranger, err := auth.NewTokens("test-secret", "techsupport")
	if err != nil {
		t.Fatalf("NewTokens error: %v", err)
	}
	other, err := stranger.Mint("someone", "", time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	expect(t, a.do(t, http.MethodGet, "/api/Appointment/"+first.ID.String(), other, nil), http.StatusNotFound, "NOT_FOUND")
	expect(t, a.do(t, http.MethodGet, "/api/Appointment/not-a-uuid", a.req, nil), http.StatusBadRequest, "INVALID_INPUT")

	w = a.do(t, http.MethodGet, "/api/TechSupport/tech-supports", a.req, nil)
	expect(t, w, http.StatusOK, "")
	techs := decode[[]technicianResponse](t, w)
	if len(techs) != 1 || techs[0].ID != "tech" || techs[0].RatingCount != 1 || techs[0].AverageRating != 5 || len(techs[0].Availabilities) != 1 {
		t.Fatalf("technicians = %+v, want tech rated 5 once with one window", techs)
	}

	if a.notifier.count(notify.KindRequested) == 0 {
		t.Fatalf("no notifications recorded")
	}
}

func TestCreateAppointment_Errors(t *testing.T) {
	a := newAPI(t, appointments.Policy{})
	const path = "/api/Appointment/create"

	cases := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{name: "past", body: map[string]string{"TechSupportId": "tech", "StartDateTime": "2029-12-31T10:00:00", "EndDateTime": "2029-12-31T11:00:00"}, status: http.StatusBadRequest, code: "IN_PAST"},
		{name: "inverted", body: map[string]string{"TechSupportId": "tech", "StartDateTime": "2030-01-07T11:00:00", "EndDateTime": "2030-01-07T10:00:00"}, status: http.StatusBadRequest, code: "INVALID_RANGE"},
		{name: "missing technician", body: map[string]string{"StartDateTime": "2030-01-07T10:00:00", "EndDateTime": "2030-01-07T11:00:00"}, status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "bad timestamp", body: map[string]string{"TechSupportId": "tech", "StartDateTime": "soon", "EndDateTime": "2030-01-07T11:00:00"}, status: http.StatusBadRequest, code: "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expect(t, a.do(t, http.MethodPost, path, a.req, tc.body), tc.status, tc.code)
		})
	}
}

func TestCreateAppointment_IdempotencyKey(t *testing.T) {
	a := newAPI(t, appointments.Policy{})
	const path = "/api/Appointment/create"
	body := map[string]string{"TechSupportId": "tech", "StartDateTime": "2030-01-07T10:00:00", "EndDateTime": "2030-01-07T11:00:00"}
	header := http.Header{"Idempotency-Key": []string{"tap-42"}}

	w := a.doWithHeader(t, http.MethodPost, path, a.req, body, header)
	expect(t, w, http.StatusCreated, "")
	first := decode[appointmentResponse](t, w)

	w = a.doWithHeader(t, http.MethodPost, path, a.req, body, header)
	expect(t, w, http.StatusCreated, "")
	if again := decode[appointmentResponse](t, w); again.ID != first.ID {
		t.Fatalf("retried id = %s, want %s", again.ID, first.ID)
	}
	if n := a.notifier.count(notify.KindRequested); n != 1 {
		t.Fatalf("request notifications = %d, want 1", n)
	}

	moved := map[string]string{"TechSupportId": "tech", "StartDateTime": "2030-01-07T12:00:00", "EndDateTime": "2030-01-07T13:00:00"}
	expect(t, a.doWithHeader(t, http.MethodPost, path, a.req, moved, header), http.StatusConflict, "IDEMPOTENCY_CONFLICT")

	w = a.do(t, http.MethodPost, path, a.req, body)
	expect(t, w, http.StatusCreated, "")
	if other := decode[appointmentResponse](t, w); other.ID == first.ID {
		t.Fatalf("request without key reused id %s", other.ID)
	}
}

func TestDeleteAvailability(t *testing.T) {
	a := newAPI(t, appointments.Policy{})

	w := a.do(t, http.MethodPost, "/api/TechSupport/Add-Availabile", a.tech, map[string]any{"day": 0, "startTime": "09:00", "endTime": "12:00"})
	expect(t, w, http.StatusCreated, "")
	slot := decode[slotResponse](t, w)

	expect(t, a.do(t, http.MethodDelete, "/api/TechSupport/Delete-Availabile/"+slot.ID.String(), a.req, nil), http.StatusForbidden, "NOT_OWNER")
	expect(t, a.do(t, http.MethodDelete, "/api/TechSupport/Delete-Availabile/"+slot.ID.String(), a.tech, nil), http.StatusNoContent, "")
	expect(t, a.do(t, http.MethodDelete, "/api/TechSupport/Delete-Availabile/"+slot.ID.String(), a.tech, nil), http.StatusNotFound, "NOT_FOUND")

	w = a.do(t, http.MethodGet, "/api/TechSupport/Schedule", a.tech, nil)
	expect(t, w, http.StatusOK, "")
	if got := decode[[]slotResponse](t, w); len(got) != 0 {
		t.Fatalf("schedule = %+v, want empty", got)
	}
}
