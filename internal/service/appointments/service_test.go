package appointments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/notify"
	"techsupport/backend/internal/service/availability"
	"techsupport/backend/internal/service/slots"
	"techsupport/backend/internal/store"
	"techsupport/backend/internal/store/memory"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type fakeNotifier struct {
	notifyFn func(ctx context.Context, ev notify.Event) error

	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(ctx context.Context, ev notify.Event) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	if f.notifyFn == nil {
		return nil
	}
	return f.notifyFn(ctx, ev)
}

const (
	tech      = "tech-1"
	requester = "req-1"
)

// 2030-01-07 is a Monday.
var monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store    *memory.Store
	clock    *fixedClock
	notifier *fakeNotifier
	svc      *Service
	avail    *availability.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		clock:    &fixedClock{now: monday.Add(-24 * time.Hour)},
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.store, f.clock, f.notifier, Policy{}, nil)
	f.avail = availability.NewService(f.store, nil)
	return f
}

func (f *fixture) addSlot(t *testing.T, owner string, day domain.Weekday, start, end string) {
	t.Helper()
	s, err := domain.ParseClockTime(start)
	if err != nil {
		t.Fatalf("ParseClockTime(%q) error: %v", start, err)
	}
	e, err := domain.ParseClockTime(end)
	if err != nil {
		t.Fatalf("ParseClockTime(%q) error: %v", end, err)
	}
	if _, err := f.avail.AddSlot(context.Background(), availability.AddSlotInput{OwnerID: owner, Day: day, Start: s, End: e}); err != nil {
		t.Fatalf("AddSlot error: %v", err)
	}
}

func (f *fixture) book(t *testing.T, req string, start, end time.Time) domain.Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), CreateInput{RequesterID: req, TechnicianID: tech, StartTime: start, EndTime: end})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return appt
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{name: "end before start", in: CreateInput{RequesterID: requester, TechnicianID: tech, StartTime: at(11, 0), EndTime: at(10, 0)}, want: domain.ErrInvalidRange},
		{name: "zero length", in: CreateInput{RequesterID: requester, TechnicianID: tech, StartTime: at(10, 0), EndTime: at(10, 0)}, want: domain.ErrInvalidRange},
		{name: "self booking", in: CreateInput{RequesterID: tech, TechnicianID: tech, StartTime: at(10, 0), EndTime: at(11, 0)}, want: domain.ErrInvalidInput},
		{name: "missing technician", in: CreateInput{RequesterID: requester, StartTime: at(10, 0), EndTime: at(11, 0)}, want: domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreate_InPast(t *testing.T) {
	f := newFixture(t)
	f.clock.now = at(12, 0)

	_, err := f.svc.Create(context.Background(), CreateInput{RequesterID: requester, TechnicianID: tech, StartTime: at(9, 0), EndTime: at(10, 0)})
	if !errors.Is(err, domain.ErrInPast) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInPast)
	}
}

func TestCreate_StoresPendingWithoutCheckingAvailability(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t, requester, at(3, 0), at(4, 0))
	if appt.Status != domain.StatusPending {
		t.Fatalf("status = %v, want %v", appt.Status, domain.StatusPending)
	}
	if appt.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Kind != notify.KindRequested || f.notifier.events[0].Recipient != tech {
		t.Fatalf("events = %+v, want one request notification to the technician", f.notifier.events)
	}
}

func TestCreate_IdempotencyKeyReplaysFirstResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{RequesterID: requester, TechnicianID: tech, StartTime: at(10, 0), EndTime: at(11, 0), IdempotencyKey: "tap-1"}

	first, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("first Create error: %v", err)
	}
	if first.ID != idempotentID(requester, "tap-1") {
		t.Fatalf("id = %s, want id derived from key", first.ID)
	}
	second, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("replayed Create error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replayed id = %s, want %s", second.ID, first.ID)
	}

	all, err := f.store.ListRequesterAppointments(ctx, requester)
	if err != nil {
		t.Fatalf("ListRequesterAppointments error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d appointments, want 1", len(all))
	}
	if len(f.notifier.events) != 1 {
		t.Fatalf("events = %d, want 1", len(f.notifier.events))
	}

	// Another requester may use the same key.
	other := in
	other.RequesterID = "req-2"
	if _, err := f.svc.Create(ctx, other); err != nil {
		t.Fatalf("other requester Create error: %v", err)
	}
}

func TestCreate_IdempotencyKeyReusedWithDifferentPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{RequesterID: requester, TechnicianID: tech, StartTime: at(10, 0), EndTime: at(11, 0), IdempotencyKey: "tap-1"}
	if _, err := f.svc.Create(ctx, in); err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	moved := in
	moved.EndTime = at(12, 0)
	if _, err := f.svc.Create(ctx, moved); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("same technician err = %v, want %v", err, domain.ErrIdempotencyConflict)
	}

	elsewhere := in
	elsewhere.TechnicianID = "tech-2"
	if _, err := f.svc.Create(ctx, elsewhere); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("other technician err = %v, want %v", err, domain.ErrIdempotencyConflict)
	}

	long := in
	long.IdempotencyKey = strings.Repeat("k", maxIdempotencyKeyLen+1)
	if _, err := f.svc.Create(ctx, long); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("long key err = %v, want %v", err, domain.ErrInvalidInput)
	}
}

func TestCreate_DropsZoneKeepingWallClock(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC+3", 3*60*60)

	appt := f.book(t, requester, time.Date(2030, 1, 7, 10, 0, 0, 0, loc), time.Date(2030, 1, 7, 11, 0, 0, 0, loc))
	if !appt.StartTime.Equal(at(10, 0)) || !appt.EndTime.Equal(at(11, 0)) {
		t.Fatalf("stored %v-%v, want %v-%v", appt.StartTime, appt.EndTime, at(10, 0), at(11, 0))
	}
}

func TestAccept_CascadesToOverlappingPendingsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "17:00")

	first := f.book(t, requester, at(10, 0), at(11, 0))
	overlapping := f.book(t, "req-2", at(10, 30), at(11, 30))
	touching := f.book(t, "req-3", at(11, 0), at(12, 0))

	res, err := f.svc.Accept(ctx, first.ID, tech)
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if res.Appointment.Status != domain.StatusAccepted {
		t.Fatalf("status = %v, want %v", res.Appointment.Status, domain.StatusAccepted)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].ID != overlapping.ID {
		t.Fatalf("rejected = %+v, want only %s", res.Rejected, overlapping.ID)
	}

	got, err := f.store.GetAppointment(ctx, overlapping.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("overlapping status = %v, want %v", got.Status, domain.StatusRejected)
	}
	got, err = f.store.GetAppointment(ctx, touching.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("touching status = %v, want %v", got.Status, domain.StatusPending)
	}

	var cascaded int
	for _, ev := range f.notifier.events {
		if ev.Kind == notify.KindRejected && ev.Cascade && ev.Recipient == "req-2" {
			cascaded++
		}
	}
	if cascaded != 1 {
		t.Fatalf("cascade notifications = %d, want 1", cascaded)
	}
}

func TestAccept_ConcurrentOverlappingAcceptsOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "17:00")

	ids := []uuid.UUID{
		f.book(t, requester, at(10, 0), at(11, 0)).ID,
		f.book(t, "req-2", at(10, 30), at(11, 30)).ID,
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(ctx, id, tech)
		}(i, id)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case !errors.Is(err, domain.ErrInvalidState):
			t.Fatalf("losing accept err = %v, want %v", err, domain.ErrInvalidState)
		}
	}
	if won != 1 {
		t.Fatalf("errs = %v, want exactly one successful accept", errs)
	}

	counts := map[domain.Status]int{}
	for _, id := range ids {
		got, err := f.store.GetAppointment(ctx, id)
		if err != nil {
			t.Fatalf("GetAppointment error: %v", err)
		}
		counts[got.Status]++
	}
	if counts[domain.StatusAccepted] != 1 || counts[domain.StatusRejected] != 1 {
		t.Fatalf("statuses = %v, want one Accepted and one Rejected", counts)
	}
}

func TestAccept_SpansTouchingWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "12:00")
	f.addSlot(t, tech, domain.Monday, "12:00", "17:00")
	f.addSlot(t, tech, domain.Monday, "22:00", "24:00")
	f.addSlot(t, tech, domain.Tuesday, "00:00", "02:00")

	seam := f.book(t, requester, at(11, 0), at(13, 0))
	if _, err := f.svc.Accept(ctx, seam.ID, tech); err != nil {
		t.Fatalf("Accept across 12:00 error: %v", err)
	}
	overnight := f.book(t, "req-2", at(23, 0), at(25, 0))
	if _, err := f.svc.Accept(ctx, overnight.ID, tech); err != nil {
		t.Fatalf("Accept across midnight error: %v", err)
	}
	gap := f.book(t, "req-3", at(16, 0), at(23, 30))
	if _, err := f.svc.Accept(ctx, gap.ID, tech); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Accept across a gap err = %v, want %v", err, domain.ErrUnavailable)
	}
}

func TestAccept_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "12:00")

	outside := f.book(t, requester, at(13, 0), at(14, 0))
	if _, err := f.svc.Accept(ctx, outside.ID, tech); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("outside window err = %v, want %v", err, domain.ErrUnavailable)
	}

	inside := f.book(t, requester, at(9, 0), at(10, 0))
	if _, err := f.svc.Accept(ctx, inside.ID, "someone-else"); !errors.Is(err, domain.ErrNotTechnician) {
		t.Fatalf("wrong actor err = %v, want %v", err, domain.ErrNotTechnician)
	}
	if _, err := f.svc.Accept(ctx, uuid.New(), tech); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing err = %v, want %v", err, domain.ErrNotFound)
	}

	if _, err := f.svc.Accept(ctx, inside.ID, tech); err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if _, err := f.svc.Accept(ctx, inside.ID, tech); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second accept err = %v, want %v", err, domain.ErrInvalidState)
	}

	late := f.book(t, requester, at(11, 0), at(12, 0))
	f.clock.now = at(11, 30)
	if _, err := f.svc.Accept(ctx, late.ID, tech); !errors.Is(err, domain.ErrInPast) {
		t.Fatalf("started err = %v, want %v", err, domain.ErrInPast)
	}
}

func TestReject_OnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.book(t, requester, at(10, 0), at(11, 0))
	if _, err := f.svc.Reject(ctx, appt.ID, requester); !errors.Is(err, domain.ErrNotTechnician) {
		t.Fatalf("requester reject err = %v, want %v", err, domain.ErrNotTechnician)
	}

	rejected, err := f.svc.Reject(ctx, appt.ID, tech)
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Fatalf("status = %v, want %v", rejected.Status, domain.StatusRejected)
	}
	if _, err := f.svc.Reject(ctx, appt.ID, tech); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second reject err = %v, want %v", err, domain.ErrInvalidState)
	}
}

func acceptedAppointment(t *testing.T, f *fixture) domain.Appointment {
	t.Helper()
	f.addSlot(t, tech, domain.Monday, "09:00", "17:00")
	appt := f.book(t, requester, at(10, 0), at(11, 0))
	if _, err := f.svc.Accept(context.Background(), appt.ID, tech); err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	return appt
}

func TestComplete_WaitsForEndUnlessPolicyAllows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := acceptedAppointment(t, f)

	f.clock.now = at(10, 30)
	if _, err := f.svc.Complete(ctx, appt.ID, tech); !errors.Is(err, domain.ErrNotFinished) {
		t.Fatalf("early complete err = %v, want %v", err, domain.ErrNotFinished)
	}

	f.svc.policy.AllowEarlyCompletion = true
	done, err := f.svc.Complete(ctx, appt.ID, tech)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if done.Status != domain.StatusCompleted {
		t.Fatalf("status = %v, want %v", done.Status, domain.StatusCompleted)
	}
	if _, err := f.svc.Complete(ctx, appt.ID, tech); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second complete err = %v, want %v", err, domain.ErrInvalidState)
	}
}

func TestComplete_RequiresAccepted(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, requester, at(10, 0), at(11, 0))
	f.clock.now = at(12, 0)

	if _, err := f.svc.Complete(context.Background(), appt.ID, tech); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidState)
	}
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := acceptedAppointment(t, f)

	if _, err := f.svc.Rate(ctx, appt.ID, requester, 5); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("rate accepted err = %v, want %v", err, domain.ErrInvalidState)
	}

	f.clock.now = at(11, 0)
	if _, err := f.svc.Complete(ctx, appt.ID, tech); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if _, err := f.svc.Rate(ctx, appt.ID, tech, 5); !errors.Is(err, domain.ErrNotRequester) {
		t.Fatalf("technician rate err = %v, want %v", err, domain.ErrNotRequester)
	}
	for _, bad := range []int{0, 6, -1} {
		if _, err := f.svc.Rate(ctx, appt.ID, requester, bad); !errors.Is(err, domain.ErrOutOfRange) {
			t.Fatalf("rate %d err = %v, want %v", bad, err, domain.ErrOutOfRange)
		}
	}

	rated, err := f.svc.Rate(ctx, appt.ID, requester, 4)
	if err != nil {
		t.Fatalf("Rate error: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != 4 {
		t.Fatalf("rating = %v, want 4", rated.Rating)
	}

	if _, err := f.svc.Rate(ctx, appt.ID, requester, 1); !errors.Is(err, domain.ErrAlreadyRated) {
		t.Fatalf("second rate err = %v, want %v", err, domain.ErrAlreadyRated)
	}
	got, err := f.store.GetAppointment(ctx, appt.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if *got.Rating != 4 {
		t.Fatalf("stored rating = %d, want 4", *got.Rating)
	}
}

func TestSetMeetingLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.book(t, requester, at(15, 0), at(16, 0))
	if _, err := f.svc.SetMeetingLink(ctx, pending.ID, tech, "https://meet.example.com/x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("pending err = %v, want %v", err, domain.ErrInvalidState)
	}

	appt := acceptedAppointment(t, f)
	if _, err := f.svc.SetMeetingLink(ctx, appt.ID, tech, "not a url"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad link err = %v, want %v", err, domain.ErrInvalidInput)
	}
	if _, err := f.svc.SetMeetingLink(ctx, appt.ID, requester, "https://meet.example.com/x"); !errors.Is(err, domain.ErrNotTechnician) {
		t.Fatalf("requester err = %v, want %v", err, domain.ErrNotTechnician)
	}

	updated, err := f.svc.SetMeetingLink(ctx, appt.ID, tech, " https://meet.example.com/x ")
	if err != nil {
		t.Fatalf("SetMeetingLink error: %v", err)
	}
	if updated.MeetingLink == nil || *updated.MeetingLink != "https://meet.example.com/x" {
		t.Fatalf("link = %v, want trimmed URL", updated.MeetingLink)
	}
}

func TestGet_HidesFromStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, requester, at(10, 0), at(11, 0))

	for _, actor := range []string{requester, tech} {
		if _, err := f.svc.Get(ctx, appt.ID, actor); err != nil {
			t.Fatalf("Get as %s error: %v", actor, err)
		}
	}
	if _, err := f.svc.Get(ctx, appt.ID, "stranger"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger err = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestLists_KeepRejectedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, requester, at(10, 0), at(11, 0))
	f.book(t, requester, at(13, 0), at(14, 0))
	if _, err := f.svc.Reject(ctx, a.ID, tech); err != nil {
		t.Fatalf("Reject error: %v", err)
	}

	mine, err := f.svc.ListForRequester(ctx, requester)
	if err != nil {
		t.Fatalf("ListForRequester error: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != a.ID || mine[0].Status != domain.StatusRejected {
		t.Fatalf("mine = %+v, want rejected record first", mine)
	}

	schedule, err := f.svc.ListForTechnician(ctx, tech, at(12, 0), at(18, 0))
	if err != nil {
		t.Fatalf("ListForTechnician error: %v", err)
	}
	if len(schedule) != 1 {
		t.Fatalf("len(schedule) = %d, want 1", len(schedule))
	}

	if _, err := f.svc.ListForTechnician(ctx, tech, at(18, 0), at(12, 0)); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("inverted window err = %v, want %v", err, domain.ErrInvalidRange)
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.notifier.notifyFn = func(ctx context.Context, ev notify.Event) error {
		return errors.New("push gateway down")
	}

	appt := f.book(t, requester, at(10, 0), at(11, 0))
	if _, err := f.store.GetAppointment(context.Background(), appt.ID); err != nil {
		t.Fatalf("appointment not persisted: %v", err)
	}
}

func TestEndToEnd_AcceptThenResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "17:00")

	first := f.book(t, "req-a", at(10, 0), at(11, 0))
	second := f.book(t, "req-b", at(10, 30), at(11, 30))

	if _, err := f.svc.Accept(ctx, first.ID, tech); err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	got, err := f.store.GetAppointment(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("second status = %v, want %v", got.Status, domain.StatusRejected)
	}

	bookable, err := slots.NewResolver(f.store).Resolve(ctx, tech, monday)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := []domain.BookableSlot{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(11, 0), End: at(17, 0)},
	}
	if len(bookable) != len(want) {
		t.Fatalf("bookable = %+v, want %+v", bookable, want)
	}
	for i := range want {
		if !bookable[i].Start.Equal(want[i].Start) || !bookable[i].End.Equal(want[i].End) {
			t.Fatalf("bookable[%d] = %v-%v, want %v-%v", i, bookable[i].Start, bookable[i].End, want[i].Start, want[i].End)
		}
	}
}

func TestAccept_OccupiedRangeIsUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, tech, domain.Monday, "09:00", "17:00")
	appt := f.book(t, requester, at(10, 0), at(11, 0))

	// An accepted booking that reached the store without going through Accept.
	err := f.store.InTechnicianTransaction(ctx, tech, func(ctx context.Context, tx store.SchedulingTx) error {
		_, err := tx.InsertAppointment(ctx, domain.Appointment{
			RequesterID: "req-x", TechnicianID: tech, StartTime: at(10, 30), EndTime: at(10, 45), Status: domain.StatusAccepted,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.svc.Accept(ctx, appt.ID, tech); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnavailable)
	}
}
