package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/calendar"
	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(h, min int) time.Time {
	return time.Date(2000, 1, 1, h, min, 0, 0, time.UTC)
}

// fakeAcademic is an in-memory AcademicStore covering the calls the
// invitation engine makes.
type fakeAcademic struct {
	course      model.CourseRoom
	timetable   *model.CourseRoom // schedule applied by a timetable refresh
	students    []model.Student
	invitations map[string]model.Invitation
	saves       int
	sessions    []model.CourseSession
}

func newFakeAcademic(course model.CourseRoom, students []model.Student) *fakeAcademic {
	return &fakeAcademic{
		course:      course,
		students:    students,
		invitations: map[string]model.Invitation{},
	}
}

func (f *fakeAcademic) CourseRoom(ctx context.Context, courseID int) (*model.CourseRoom, error) {
	if courseID != f.course.CourseID {
		return nil, errs.ErrCourseNotFound
	}
	cr := f.course
	return &cr, nil
}

func (f *fakeAcademic) CourseStudents(ctx context.Context, courseID int) ([]model.Student, error) {
	return f.students, nil
}

func (f *fakeAcademic) StudentEmail(ctx context.Context, studentID string, courseID int) (string, error) {
	for _, st := range f.students {
		if st.ID == studentID {
			return st.Email, nil
		}
	}
	return "", errs.ErrStudentNotFound
}

func (f *fakeAcademic) SetCourseCalendarID(ctx context.Context, courseID int, calendarEventID string) error {
	f.course.CalendarEventID = &calendarEventID
	return nil
}

func (f *fakeAcademic) RefreshScheduleFromTimetable(ctx context.Context, courseID int) (bool, error) {
	if f.timetable == nil {
		return false, nil
	}
	f.course.StartDate = f.timetable.StartDate
	f.course.EndDate = f.timetable.EndDate
	f.course.Days = f.timetable.Days
	f.course.StartTime = f.timetable.StartTime
	f.course.EndTime = f.timetable.EndTime
	return true, nil
}

func (f *fakeAcademic) InvitationFor(ctx context.Context, courseID int, studentID string) (*model.Invitation, error) {
	inv, ok := f.invitations[studentID]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (f *fakeAcademic) SaveInvitation(ctx context.Context, inv model.Invitation) error {
	f.invitations[inv.StudentID] = inv
	f.saves++
	return nil
}

func (f *fakeAcademic) InvitationsForCourse(ctx context.Context, courseID int) ([]model.Invitation, error) {
	var out []model.Invitation
	for _, inv := range f.invitations {
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeAcademic) DeleteInvitations(ctx context.Context, courseID int) (int64, error) {
	n := int64(len(f.invitations))
	f.invitations = map[string]model.Invitation{}
	return n, nil
}

func (f *fakeAcademic) ActiveSessions(ctx context.Context, courseID int) ([]model.CourseSession, error) {
	var out []model.CourseSession
	for _, sess := range f.sessions {
		if sess.Active {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeAcademic) Sessions(ctx context.Context, courseID int) ([]model.CourseSession, error) {
	return f.sessions, nil
}

func (f *fakeAcademic) Session(ctx context.Context, courseID, number int) (*model.CourseSession, error) {
	for _, sess := range f.sessions {
		if sess.Number == number && sess.Active {
			s := sess
			return &s, nil
		}
	}
	return nil, errs.ErrSessionNotFound
}

func (f *fakeAcademic) RescheduleSession(ctx context.Context, courseID, number int, newDate time.Time, calendarEventID *string) error {
	for i := range f.sessions {
		if f.sessions[i].Number == number && f.sessions[i].Active {
			f.sessions[i].Active = false
			f.sessions[i].Status = model.SessionSuspended
			f.sessions[i].MovedTo = &newDate
			f.sessions = append(f.sessions, model.CourseSession{
				CourseID:        courseID,
				Number:          number,
				Date:            newDate,
				Status:          model.SessionNormal,
				Active:          true,
				CalendarEventID: calendarEventID,
			})
			return nil
		}
	}
	return errs.ErrSessionNotFound
}

func (f *fakeAcademic) UpsertCourseRoom(ctx context.Context, cr *model.CourseRoom) error { return nil }
func (f *fakeAcademic) ClearRoomReferences(ctx context.Context, roomID string) error     { return nil }
func (f *fakeAcademic) CalendarIDForRoom(ctx context.Context, roomID string) (string, error) {
	return "", nil
}
func (f *fakeAcademic) UpdateSchedule(ctx context.Context, courseID int, startDate, endDate time.Time, days string, startTime, endTime time.Time) error {
	f.course.StartDate, f.course.EndDate = startDate, endDate
	f.course.Days = days
	f.course.StartTime, f.course.EndTime = startTime, endTime
	return nil
}
func (f *fakeAcademic) DeleteCourse(ctx context.Context, courseID int) error { return nil }

type cancelCall struct {
	occurrenceID string
	notify       bool
}

// fakeCalendar is an in-memory calendar.Service that tracks mutations.
type fakeCalendar struct {
	nextID      int
	events      map[string]calendar.Event
	occurrences map[string][]calendar.Occurrence
	creates     int
	updates     int
	standalones []calendar.Event
	cancels     []cancelCall
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:      map[string]calendar.Event{},
		occurrences: map[string][]calendar.Occurrence{},
	}
}

func (f *fakeCalendar) newID() string {
	f.nextID++
	return fmt.Sprintf("event-%d", f.nextID)
}

func (f *fakeCalendar) CreateRecurring(ctx context.Context, ev calendar.Event, notify bool) (string, error) {
	f.creates++
	id := f.newID()
	f.events[id] = ev
	return id, nil
}

func (f *fakeCalendar) UpdateRecurring(ctx context.Context, eventID string, ev calendar.Event, notify bool) (string, error) {
	if _, ok := f.events[eventID]; !ok {
		return "", fmt.Errorf("fake calendar: no event %s", eventID)
	}
	f.updates++
	f.events[eventID] = ev
	return eventID, nil
}

func (f *fakeCalendar) Delete(ctx context.Context, eventID string) error {
	delete(f.events, eventID)
	return nil
}

func (f *fakeCalendar) Get(ctx context.Context, eventID string) (*calendar.Event, error) {
	ev, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("fake calendar: no event %s", eventID)
	}
	return &ev, nil
}

func (f *fakeCalendar) Occurrences(ctx context.Context, eventID string) ([]calendar.Occurrence, error) {
	return f.occurrences[eventID], nil
}

func (f *fakeCalendar) CancelOccurrence(ctx context.Context, occ calendar.Occurrence, notify bool) error {
	f.cancels = append(f.cancels, cancelCall{occurrenceID: occ.ID, notify: notify})
	for eventID, occs := range f.occurrences {
		for i := range occs {
			if occs[i].ID == occ.ID {
				occs[i].Cancelled = true
				f.occurrences[eventID] = occs
			}
		}
	}
	return nil
}

func (f *fakeCalendar) CreateStandalone(ctx context.Context, ev calendar.Event, notify bool) (string, error) {
	f.standalones = append(f.standalones, ev)
	id := f.newID()
	f.events[id] = ev
	return id, nil
}

type templatedSend struct {
	to      string
	subject string
}

// fakeMailer records deliveries and can be told to fail.
type fakeMailer struct {
	sends     [][]string
	templated []templatedSend
	fail      bool
}

func (f *fakeMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sends = append(f.sends, to)
	return nil
}

func (f *fakeMailer) SendTemplated(ctx context.Context, to, subject string, replacements map[string]string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.templated = append(f.templated, templatedSend{to: to, subject: subject})
	return nil
}

func scheduledCourse() model.CourseRoom {
	return model.CourseRoom{
		CourseID:   501,
		RoomName:   "Inglés Intermedio",
		RoomURL:    "https://rooms.example.edu/rooms/abc-def-ghi-jkl/join",
		ViewerKey:  "viewkey1",
		FriendlyID: "abc-def-ghi-jkl",
		StartDate:  date(2025, time.March, 3), // a Monday
		EndDate:    date(2025, time.June, 1),
		Days:       "LU,MI",
		StartTime:  clock(18, 0),
		EndTime:    clock(19, 30),
	}
}

func newEngine(academic *fakeAcademic, cal *fakeCalendar, mailer *fakeMailer) *InvitationService {
	return NewInvitationService(academic, cal, mailer, zap.NewNop())
}

func TestSendCourseInvitationsFirstRun(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
		{ID: "1002", Email: "benjamin@example.edu"},
	})
	cal := newFakeCalendar()
	mailer := &fakeMailer{}
	svc := newEngine(academic, cal, mailer)

	resp, err := svc.SendCourseInvitations(context.Background(), 501)
	if err != nil {
		t.Fatalf("SendCourseInvitations: %v", err)
	}
	if resp.EmailsSent != 2 {
		t.Errorf("EmailsSent = %d, want 2", resp.EmailsSent)
	}

	if cal.creates != 1 {
		t.Fatalf("recurring events created = %d, want 1", cal.creates)
	}
	if academic.course.CalendarEventID == nil {
		t.Fatal("calendar event id not persisted on the course")
	}
	ev := cal.events[*academic.course.CalendarEventID]
	if len(ev.Attendees) != 2 {
		t.Errorf("attendees = %v, want both students", ev.Attendees)
	}
	if !strings.Contains(ev.Recurrence, "BYDAY=MO,WE") {
		t.Errorf("recurrence %q does not translate LU,MI", ev.Recurrence)
	}
	if !strings.Contains(ev.Recurrence, "UNTIL=20250601") {
		t.Errorf("recurrence %q not bounded by the course end date", ev.Recurrence)
	}
	if got := ev.Start.Format("2006-01-02 15:04"); got != "2025-03-03 18:00" {
		t.Errorf("event start = %s, want 2025-03-03 18:00", got)
	}

	if len(academic.invitations) != 2 {
		t.Errorf("ledger rows = %d, want 2", len(academic.invitations))
	}
	if len(mailer.templated) != 0 {
		t.Errorf("reminder emails on first run = %d, want 0", len(mailer.templated))
	}
}

func TestSendCourseInvitationsSecondRunSendsRemindersOnly(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
		{ID: "1002", Email: "benjamin@example.edu"},
	})
	cal := newFakeCalendar()
	mailer := &fakeMailer{}
	svc := newEngine(academic, cal, mailer)

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("first run: %v", err)
	}
	savesAfterFirst := academic.saves

	resp, err := svc.SendCourseInvitations(context.Background(), 501)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if cal.creates != 1 {
		t.Errorf("recurring events created = %d, want exactly 1 across both runs", cal.creates)
	}
	if academic.saves != savesAfterFirst {
		t.Errorf("ledger writes grew from %d to %d on the second run", savesAfterFirst, academic.saves)
	}
	if len(mailer.templated) != 2 {
		t.Errorf("reminder emails on second run = %d, want 2", len(mailer.templated))
	}
	if resp.EmailsSent != 2 {
		t.Errorf("EmailsSent = %d, want 2", resp.EmailsSent)
	}
}

func TestSendCourseInvitationsLateEnrollee(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
	})
	cal := newFakeCalendar()
	mailer := &fakeMailer{}
	svc := newEngine(academic, cal, mailer)

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("first run: %v", err)
	}

	academic.students = append(academic.students, model.Student{ID: "1002", Email: "carla@example.edu"})
	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("second run: %v", err)
	}

	ev := cal.events[*academic.course.CalendarEventID]
	if len(ev.Attendees) != 2 {
		t.Errorf("attendees after late enrollment = %v, want full roster", ev.Attendees)
	}
	if cal.updates != 1 {
		t.Errorf("event updates = %d, want 1", cal.updates)
	}
	if _, ok := academic.invitations["1002"]; !ok {
		t.Error("late enrollee missing from the ledger")
	}
	if len(mailer.templated) != 1 || mailer.templated[0].to != "ana@example.edu" {
		t.Errorf("reminders = %v, want one to the already-invited student", mailer.templated)
	}
}

func TestSendCourseInvitationsRefreshesSchedule(t *testing.T) {
	course := scheduledCourse()
	timetable := course
	course.StartDate, course.EndDate = time.Time{}, time.Time{}
	course.Days = ""
	course.StartTime, course.EndTime = time.Time{}, time.Time{}

	academic := newFakeAcademic(course, []model.Student{{ID: "1001", Email: "ana@example.edu"}})
	academic.timetable = &timetable
	cal := newFakeCalendar()
	svc := newEngine(academic, cal, &fakeMailer{})

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("SendCourseInvitations after refresh: %v", err)
	}
	if cal.creates != 1 {
		t.Errorf("events created = %d, want 1", cal.creates)
	}
}

func TestSendCourseInvitationsNoSchedule(t *testing.T) {
	course := scheduledCourse()
	course.Days = ""

	academic := newFakeAcademic(course, nil)
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	_, err := svc.SendCourseInvitations(context.Background(), 501)
	if !errors.Is(err, errs.ErrNoSchedule) {
		t.Fatalf("err = %v, want ErrNoSchedule", err)
	}
}

func TestSendIndividualInvitationFirstTime(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
	})
	cal := newFakeCalendar()
	svc := newEngine(academic, cal, &fakeMailer{})

	resp, err := svc.SendIndividualInvitation(context.Background(), 501, "1001")
	if err != nil {
		t.Fatalf("SendIndividualInvitation: %v", err)
	}
	if resp.Message != "invitation sent" || resp.EmailsSent != 1 {
		t.Errorf("resp = %+v, want invitation sent / 1", resp)
	}
	if cal.creates != 1 {
		t.Errorf("events created = %d, want 1", cal.creates)
	}
	ev := cal.events[*academic.course.CalendarEventID]
	if len(ev.Attendees) != 1 || ev.Attendees[0] != "ana@example.edu" {
		t.Errorf("attendees = %v, want only the invited student", ev.Attendees)
	}
	if _, ok := academic.invitations["1001"]; !ok {
		t.Error("ledger row not written")
	}
}

func TestSendIndividualInvitationAlreadyInvited(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
	})
	academic.invitations["1001"] = model.Invitation{CourseID: 501, StudentID: "1001"}
	cal := newFakeCalendar()
	mailer := &fakeMailer{}
	svc := newEngine(academic, cal, mailer)

	resp, err := svc.SendIndividualInvitation(context.Background(), 501, "1001")
	if err != nil {
		t.Fatalf("SendIndividualInvitation: %v", err)
	}
	if resp.Message != "reminder sent" {
		t.Errorf("message = %q, want reminder sent", resp.Message)
	}
	if cal.creates != 0 || cal.updates != 0 {
		t.Errorf("calendar touched for an already-invited student: creates=%d updates=%d", cal.creates, cal.updates)
	}
	if len(mailer.templated) != 1 {
		t.Errorf("reminders = %d, want 1", len(mailer.templated))
	}
}

func TestSendIndividualInvitationJoinsExistingEvent(t *testing.T) {
	course := scheduledCourse()
	academic := newFakeAcademic(course, []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
		{ID: "1002", Email: "benjamin@example.edu"},
	})
	cal := newFakeCalendar()
	svc := newEngine(academic, cal, &fakeMailer{})

	// Course 501 already has its event from a bulk run.
	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("bulk run: %v", err)
	}
	academic.students = append(academic.students, model.Student{ID: "1003", Email: "carla@example.edu"})

	if _, err := svc.SendIndividualInvitation(context.Background(), 501, "1003"); err != nil {
		t.Fatalf("SendIndividualInvitation: %v", err)
	}

	ev := cal.events[*academic.course.CalendarEventID]
	if len(ev.Attendees) != 3 {
		t.Errorf("attendees = %v, want the full roster including the new student", ev.Attendees)
	}
	if cal.creates != 1 {
		t.Errorf("events created = %d, want the bulk run's single event", cal.creates)
	}
}

func TestSendIndividualInvitationUnknownStudent(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), nil)
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	_, err := svc.SendIndividualInvitation(context.Background(), 501, "9999")
	if !errors.Is(err, errs.ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestUpdateCourseEventRequiresExistingEvent(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), nil)
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	_, err := svc.UpdateCourseEvent(context.Background(), model.UpdateEventRequest{CourseID: 501})
	if !errors.Is(err, errs.ErrNoCalendarEvent) {
		t.Fatalf("err = %v, want ErrNoCalendarEvent", err)
	}
}

func TestUpdateCourseEventOverridesSchedule(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
	})
	cal := newFakeCalendar()
	svc := newEngine(academic, cal, &fakeMailer{})

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("bulk run: %v", err)
	}

	days := "MA,JU"
	resp, err := svc.UpdateCourseEvent(context.Background(), model.UpdateEventRequest{
		CourseID:     501,
		Days:         &days,
		Participants: []string{"ana@example.edu", "profesor@example.edu"},
	})
	if err != nil {
		t.Fatalf("UpdateCourseEvent: %v", err)
	}
	if resp.EmailsSent != 2 {
		t.Errorf("EmailsSent = %d, want 2", resp.EmailsSent)
	}

	ev := cal.events[*academic.course.CalendarEventID]
	if !strings.Contains(ev.Recurrence, "BYDAY=TU,TH") {
		t.Errorf("recurrence %q does not reflect the overridden days", ev.Recurrence)
	}
	if len(ev.Attendees) != 2 {
		t.Errorf("attendees = %v, want the explicit participant list", ev.Attendees)
	}
}

func TestUpdateCourseEventPersistsOverrides(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
	})
	cal := newFakeCalendar()
	svc := newEngine(academic, cal, &fakeMailer{})

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("bulk run: %v", err)
	}

	days := "MA,JU"
	if _, err := svc.UpdateCourseEvent(context.Background(), model.UpdateEventRequest{
		CourseID: 501,
		Days:     &days,
	}); err != nil {
		t.Fatalf("UpdateCourseEvent: %v", err)
	}
	if academic.course.Days != "MA,JU" {
		t.Errorf("stored days = %q, want the override persisted", academic.course.Days)
	}

	// A second bulk run must rebuild the event on the new days, not the old.
	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("second bulk run: %v", err)
	}
	ev := cal.events[*academic.course.CalendarEventID]
	if !strings.Contains(ev.Recurrence, "BYDAY=TU,TH") {
		t.Errorf("recurrence after rebuild = %q, want the persisted days", ev.Recurrence)
	}

	// Attendee-only updates leave the stored schedule alone.
	before := academic.course.Days
	if _, err := svc.UpdateCourseEvent(context.Background(), model.UpdateEventRequest{
		CourseID:     501,
		Participants: []string{"ana@example.edu"},
	}); err != nil {
		t.Fatalf("attendee-only UpdateCourseEvent: %v", err)
	}
	if academic.course.Days != before {
		t.Errorf("stored days changed to %q by an attendee-only update", academic.course.Days)
	}
}

func TestInvitationLedger(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
		{ID: "1002", Email: "benjamin@example.edu"},
	})
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("bulk run: %v", err)
	}

	ledger, err := svc.InvitationLedger(context.Background(), 501)
	if err != nil {
		t.Fatalf("InvitationLedger: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(ledger))
	}
	seen := map[string]bool{}
	for _, row := range ledger {
		seen[row.StudentID] = true
		if row.URL == "" {
			t.Errorf("ledger row for %s has no room url", row.StudentID)
		}
	}
	if !seen["1001"] || !seen["1002"] {
		t.Errorf("ledger students = %v, want 1001 and 1002", seen)
	}

	if _, err := svc.InvitationLedger(context.Background(), 999); !errors.Is(err, errs.ErrCourseNotFound) {
		t.Fatalf("unknown course err = %v, want ErrCourseNotFound", err)
	}
}

func TestSessionHistory(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), nil)
	moved := date(2025, time.March, 7)
	standaloneID := "event-7"
	academic.sessions = []model.CourseSession{
		{CourseID: 501, Number: 1, Date: date(2025, time.March, 3), Status: model.SessionNormal, Active: true},
		{CourseID: 501, Number: 2, Date: date(2025, time.March, 5), Status: model.SessionSuspended, Active: false, MovedTo: &moved},
		{CourseID: 501, Number: 2, Date: moved, Status: model.SessionNormal, Active: true, CalendarEventID: &standaloneID},
	}
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	history, err := svc.SessionHistory(context.Background(), 501)
	if err != nil {
		t.Fatalf("SessionHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want all 3 including the suspended one", len(history))
	}

	var suspended *model.SessionDTO
	for i := range history {
		if history[i].Status == model.SessionSuspended {
			suspended = &history[i]
		}
	}
	if suspended == nil {
		t.Fatal("suspended row missing from history")
	}
	if suspended.MovedTo != "2025-03-07" {
		t.Errorf("suspended MovedTo = %q, want 2025-03-07", suspended.MovedTo)
	}

	if _, err := svc.SessionHistory(context.Background(), 999); !errors.Is(err, errs.ErrCourseNotFound) {
		t.Fatalf("unknown course err = %v, want ErrCourseNotFound", err)
	}
}

func TestRescheduleSessionPreservesHistory(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), []model.Student{
		{ID: "1001", Email: "ana@example.edu"},
		{ID: "1002", Email: "benjamin@example.edu"},
	})
	cal := newFakeCalendar()
	mailer := &fakeMailer{}
	svc := newEngine(academic, cal, mailer)

	if _, err := svc.SendCourseInvitations(context.Background(), 501); err != nil {
		t.Fatalf("bulk run: %v", err)
	}
	eventID := *academic.course.CalendarEventID

	oldDate := date(2025, time.March, 5) // the first Wednesday
	academic.sessions = []model.CourseSession{
		{CourseID: 501, Number: 1, Date: date(2025, time.March, 3), Status: model.SessionNormal, Active: true},
		{CourseID: 501, Number: 2, Date: oldDate, Status: model.SessionNormal, Active: true},
	}
	cal.occurrences[eventID] = []calendar.Occurrence{
		{ID: "occ-1", Date: "2025-03-03"},
		{ID: "occ-2", Date: "2025-03-05"},
	}

	newDate := date(2025, time.March, 7)
	resp, err := svc.RescheduleSession(context.Background(), 501, 2, newDate)
	if err != nil {
		t.Fatalf("RescheduleSession: %v", err)
	}
	if resp.EmailsSent != 2 {
		t.Errorf("EmailsSent = %d, want the full roster notified", resp.EmailsSent)
	}

	// The displaced occurrence goes quietly; the replacement announces itself.
	if len(cal.cancels) != 1 || cal.cancels[0].occurrenceID != "occ-2" {
		t.Fatalf("cancels = %+v, want exactly occ-2", cal.cancels)
	}
	if cal.cancels[0].notify {
		t.Error("displaced occurrence cancelled with notifications on")
	}
	if len(cal.standalones) != 1 {
		t.Fatalf("standalone events = %d, want 1", len(cal.standalones))
	}
	repl := cal.standalones[0]
	if got := repl.Start.Format("2006-01-02 15:04"); got != "2025-03-07 18:00" {
		t.Errorf("replacement start = %s, want 2025-03-07 18:00", got)
	}
	if repl.Recurrence != "" {
		t.Errorf("replacement carries a recurrence %q, want standalone", repl.Recurrence)
	}

	// History: the old row is suspended and points at the new date, the new
	// row is the only active one for session 2.
	var suspended, active *model.CourseSession
	for i := range academic.sessions {
		sess := &academic.sessions[i]
		if sess.Number != 2 {
			continue
		}
		if sess.Active {
			active = sess
		} else {
			suspended = sess
		}
	}
	if suspended == nil || suspended.Status != model.SessionSuspended {
		t.Fatalf("displaced session row not suspended: %+v", suspended)
	}
	if suspended.MovedTo == nil || !suspended.MovedTo.Equal(newDate) {
		t.Errorf("suspended row MovedTo = %v, want %v", suspended.MovedTo, newDate)
	}
	if active == nil || !active.Date.Equal(newDate) || active.Status != model.SessionNormal {
		t.Fatalf("replacement session row wrong: %+v", active)
	}
	if active.CalendarEventID == nil {
		t.Error("replacement row not linked to the standalone event")
	}
}

func TestRescheduleSessionUnknownSession(t *testing.T) {
	course := scheduledCourse()
	eventID := "event-1"
	course.CalendarEventID = &eventID

	academic := newFakeAcademic(course, nil)
	cal := newFakeCalendar()
	cal.events[eventID] = calendar.Event{}
	svc := newEngine(academic, cal, &fakeMailer{})

	_, err := svc.RescheduleSession(context.Background(), 501, 7, date(2025, time.April, 1))
	if !errors.Is(err, errs.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSyncCalendarCancelsStaleOccurrences(t *testing.T) {
	course := scheduledCourse()
	eventID := "event-1"
	course.CalendarEventID = &eventID

	academic := newFakeAcademic(course, nil)
	academic.sessions = []model.CourseSession{
		{CourseID: 501, Number: 1, Date: date(2025, time.March, 3), Active: true},
		{CourseID: 501, Number: 2, Date: date(2025, time.March, 10), Active: true},
		// Session 3 was moved away from March 12; its old row is inactive.
		{CourseID: 501, Number: 3, Date: date(2025, time.March, 12), Active: false, Status: model.SessionSuspended},
		{CourseID: 501, Number: 3, Date: date(2025, time.March, 14), Active: true},
	}
	cal := newFakeCalendar()
	cal.events[eventID] = calendar.Event{}
	cal.occurrences[eventID] = []calendar.Occurrence{
		{ID: "occ-1", Date: "2025-03-03"},
		{ID: "occ-2", Date: "2025-03-10"},
		{ID: "occ-3", DateTime: "2025-03-12T18:00:00-03:00"},
	}
	svc := newEngine(academic, cal, &fakeMailer{})

	cancelled, err := svc.SyncCalendar(context.Background(), 501)
	if err != nil {
		t.Fatalf("SyncCalendar: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", cancelled)
	}
	if cal.cancels[0].occurrenceID != "occ-3" || cal.cancels[0].notify {
		t.Errorf("cancel = %+v, want occ-3 without notifications", cal.cancels[0])
	}

	// Second pass finds nothing left to cancel.
	cancelled, err = svc.SyncCalendar(context.Background(), 501)
	if err != nil {
		t.Fatalf("second SyncCalendar: %v", err)
	}
	if cancelled != 0 {
		t.Errorf("second pass cancelled = %d, want 0", cancelled)
	}
}

func TestSyncCalendarRequiresEvent(t *testing.T) {
	academic := newFakeAcademic(scheduledCourse(), nil)
	svc := newEngine(academic, newFakeCalendar(), &fakeMailer{})

	_, err := svc.SyncCalendar(context.Background(), 501)
	if !errors.Is(err, errs.ErrNoCalendarEvent) {
		t.Fatalf("err = %v, want ErrNoCalendarEvent", err)
	}
}
