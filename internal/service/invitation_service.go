package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/calendar"
	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/mail"
	"github.com/Nurfog/bbbAPIGL/internal/model"
	"github.com/Nurfog/bbbAPIGL/internal/schedule"
)

// Class events carry the academic platform's timezone.
const eventTimeZone = "America/Santiago"

// InvitationService is the reconciliation engine between the academic
// store, the invitation ledger and the external calendar. The ledger row is
// the sole idempotency gate: a student with a row gets a reminder email, a
// student without one gets a calendar invitation and a new row.
type InvitationService struct {
	academic AcademicStore
	cal      calendar.Service
	mailer   mail.Sender
	log      *zap.Logger
}

func NewInvitationService(academic AcademicStore, cal calendar.Service, mailer mail.Sender, log *zap.Logger) *InvitationService {
	return &InvitationService{academic: academic, cal: cal, mailer: mailer, log: log}
}

// loadScheduled loads the course/room link and guarantees it has a weekly
// schedule, pulling the timetable from the academic planning tables once
// when it does not.
func (s *InvitationService) loadScheduled(ctx context.Context, courseID int) (*model.CourseRoom, error) {
	cr, err := s.academic.CourseRoom(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if cr.HasSchedule() {
		return cr, nil
	}

	refreshed, err := s.academic.RefreshScheduleFromTimetable(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if refreshed {
		if cr, err = s.academic.CourseRoom(ctx, courseID); err != nil {
			return nil, err
		}
		if cr.HasSchedule() {
			return cr, nil
		}
	}
	return nil, errs.ErrNoSchedule
}

// courseEvent builds the recurring event for a course from its stored
// schedule and the given attendee list.
func courseEvent(cr *model.CourseRoom, attendees []string) (calendar.Event, error) {
	rule, err := schedule.WeeklyRule(cr.EndDate, schedule.TranslateDayCodes(cr.Days))
	if err != nil {
		return calendar.Event{}, err
	}
	start := combine(cr.StartDate, cr.StartTime)
	end := combine(cr.StartDate, cr.EndTime)
	return calendar.Event{
		Summary:     fmt.Sprintf("Invitación: %s", cr.FriendlyID),
		Location:    cr.RoomURL,
		Description: fmt.Sprintf("Únete a la sala virtual.\n\nURL: %s\nClave de Espectador: %s", cr.RoomURL, cr.ViewerKey),
		Start:       start,
		End:         end,
		TimeZone:    eventTimeZone,
		Recurrence:  rule,
		Attendees:   attendees,
	}, nil
}

// combine anchors a time-of-day on a calendar date.
func combine(date, timeOfDay time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), timeOfDay.Second(), 0, timeOfDay.Location())
}

func reminderReplacements(cr *model.CourseRoom) map[string]string {
	return map[string]string{
		mail.VarRoomURL:   cr.RoomURL,
		mail.VarStartDate: cr.StartDate.Format("02-01-2006"),
		mail.VarRoomName:  cr.RoomName,
		mail.VarViewerKey: cr.ViewerKey,
	}
}

// SendCourseInvitations invites every enrolled student to the course's
// recurring event. Students already in the ledger get a reminder email;
// the rest become attendees of the (created or fully updated) event and
// gain a ledger row. The event's attendee list always ends up as the full
// current roster.
func (s *InvitationService) SendCourseInvitations(ctx context.Context, courseID int) (*model.InvitationResponse, error) {
	cr, err := s.loadScheduled(ctx, courseID)
	if err != nil {
		return nil, err
	}

	students, err := s.academic.CourseStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return &model.InvitationResponse{Message: "no students enrolled", EmailsSent: 0}, nil
	}

	subject := fmt.Sprintf("Recordatorio: Tu clase de %s", cr.RoomName)
	replacements := reminderReplacements(cr)

	sent := 0
	var pending []model.Student
	for _, st := range students {
		inv, err := s.academic.InvitationFor(ctx, courseID, st.ID)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			pending = append(pending, st)
			continue
		}
		if err := s.mailer.SendTemplated(ctx, st.Email, subject, replacements); err != nil {
			s.log.Warn("reminder email failed, continuing",
				zap.Int("course_id", courseID), zap.String("student_id", st.ID), zap.Error(err))
			continue
		}
		sent++
	}

	roster := make([]string, 0, len(students))
	for _, st := range students {
		roster = append(roster, st.Email)
	}

	// One recurring event per course, attendees always the full roster. A
	// failure here aborts before any ledger write so state cannot fork.
	if err := s.ensureCourseEvent(ctx, cr, roster); err != nil {
		return nil, err
	}

	for _, st := range pending {
		inv := model.Invitation{CourseID: courseID, StudentID: st.ID, URL: cr.RoomURL, CreatedAt: time.Now()}
		if err := s.academic.SaveInvitation(ctx, inv); err != nil {
			s.log.Error("invitation ledger write failed, continuing",
				zap.Int("course_id", courseID), zap.String("student_id", st.ID), zap.Error(err))
			continue
		}
		sent++
	}

	if err := s.mailer.Send(ctx, roster, subject, mail.Render(replacements)); err != nil {
		s.log.Warn("roster summary email failed",
			zap.Int("course_id", courseID), zap.Error(err))
	}

	s.log.Info("course invitations processed",
		zap.Int("course_id", courseID), zap.Int("students", len(students)),
		zap.Int("new", len(pending)), zap.Int("emails_sent", sent))
	return &model.InvitationResponse{Message: "invitations processed", EmailsSent: sent}, nil
}

// ensureCourseEvent creates the course's recurring event when none exists
// yet, or fully replaces its attendees, time window and rule when one does.
func (s *InvitationService) ensureCourseEvent(ctx context.Context, cr *model.CourseRoom, attendees []string) error {
	ev, err := courseEvent(cr, attendees)
	if err != nil {
		return err
	}
	if cr.CalendarEventID == nil || *cr.CalendarEventID == "" {
		eventID, err := s.cal.CreateRecurring(ctx, ev, true)
		if err != nil {
			return err
		}
		if err := s.academic.SetCourseCalendarID(ctx, cr.CourseID, eventID); err != nil {
			return err
		}
		cr.CalendarEventID = &eventID
		return nil
	}
	_, err = s.cal.UpdateRecurring(ctx, *cr.CalendarEventID, ev, true)
	return err
}

// SendIndividualInvitation applies the same ledger gate to one student. A
// student with a ledger row gets a reminder; otherwise the recurring event
// is created for them alone or updated with the full roster plus them, and
// a ledger row is written.
func (s *InvitationService) SendIndividualInvitation(ctx context.Context, courseID int, studentID string) (*model.InvitationResponse, error) {
	cr, err := s.loadScheduled(ctx, courseID)
	if err != nil {
		return nil, err
	}

	email, err := s.academic.StudentEmail(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	inv, err := s.academic.InvitationFor(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if inv != nil {
		subject := fmt.Sprintf("Recordatorio: Tu clase de %s", cr.RoomName)
		if err := s.mailer.SendTemplated(ctx, email, subject, reminderReplacements(cr)); err != nil {
			return nil, err
		}
		return &model.InvitationResponse{Message: "reminder sent", EmailsSent: 1}, nil
	}

	var attendees []string
	if cr.CalendarEventID == nil || *cr.CalendarEventID == "" {
		attendees = []string{email}
	} else {
		// The gateway only replaces attendee lists wholesale, so union the
		// new student into the full current roster.
		students, err := s.academic.CourseStudents(ctx, courseID)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{email: true}
		attendees = []string{email}
		for _, st := range students {
			if !seen[st.Email] {
				seen[st.Email] = true
				attendees = append(attendees, st.Email)
			}
		}
	}
	if err := s.ensureCourseEvent(ctx, cr, attendees); err != nil {
		return nil, err
	}

	newInv := model.Invitation{CourseID: courseID, StudentID: studentID, URL: cr.RoomURL, CreatedAt: time.Now()}
	if err := s.academic.SaveInvitation(ctx, newInv); err != nil {
		return nil, err
	}

	s.log.Info("individual invitation sent",
		zap.Int("course_id", courseID), zap.String("student_id", studentID))
	return &model.InvitationResponse{Message: "invitation sent", EmailsSent: 1}, nil
}

// UpdateCourseEvent reissues the recurring event with override fields laid
// over the stored schedule. The course must already have an event.
func (s *InvitationService) UpdateCourseEvent(ctx context.Context, req model.UpdateEventRequest) (*model.InvitationResponse, error) {
	cr, err := s.academic.CourseRoom(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if cr.CalendarEventID == nil || *cr.CalendarEventID == "" {
		return nil, errs.ErrNoCalendarEvent
	}

	attendees := req.Participants
	if attendees == nil {
		students, err := s.academic.CourseStudents(ctx, req.CourseID)
		if err != nil {
			return nil, err
		}
		for _, st := range students {
			attendees = append(attendees, st.Email)
		}
	}
	if len(attendees) == 0 {
		return &model.InvitationResponse{Message: "no students enrolled", EmailsSent: 0}, nil
	}

	overridden := false
	if req.StartDate != nil {
		cr.StartDate = *req.StartDate
		overridden = true
	}
	if req.EndDate != nil {
		cr.EndDate = *req.EndDate
		overridden = true
	}
	if req.Days != nil {
		cr.Days = *req.Days
		overridden = true
	}
	if req.StartTime != nil {
		cr.StartTime = *req.StartTime
		overridden = true
	}
	if req.EndTime != nil {
		cr.EndTime = *req.EndTime
		overridden = true
	}
	if !cr.HasSchedule() {
		return nil, errs.ErrNoSchedule
	}

	ev, err := courseEvent(cr, attendees)
	if err != nil {
		return nil, err
	}
	if _, err := s.cal.UpdateRecurring(ctx, *cr.CalendarEventID, ev, true); err != nil {
		return nil, err
	}

	// Persist the overrides so the next bulk invite rebuilds the same event
	// instead of reverting to the old schedule.
	if overridden {
		if err := s.academic.UpdateSchedule(ctx, req.CourseID,
			cr.StartDate, cr.EndDate, cr.Days, cr.StartTime, cr.EndTime); err != nil {
			return nil, err
		}
	}

	s.log.Info("course event updated",
		zap.Int("course_id", req.CourseID), zap.Int("attendees", len(attendees)))
	return &model.InvitationResponse{Message: "event updated", EmailsSent: len(attendees)}, nil
}

// RescheduleSession moves one session to a new date: the matching occurrence
// of the recurring event is cancelled quietly, a standalone event is created
// at the new date with the original time-of-day, the session history gains a
// suspended row plus an active one, and students are told by email.
func (s *InvitationService) RescheduleSession(ctx context.Context, courseID, sessionNumber int, newDate time.Time) (*model.InvitationResponse, error) {
	cr, err := s.academic.CourseRoom(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if cr.CalendarEventID == nil || *cr.CalendarEventID == "" {
		return nil, errs.ErrNoCalendarEvent
	}

	sess, err := s.academic.Session(ctx, courseID, sessionNumber)
	if err != nil {
		return nil, err
	}

	if schedule.IsNonClassDay(newDate) {
		s.log.Warn("rescheduling onto a non-class day",
			zap.Int("course_id", courseID), zap.Int("session", sessionNumber),
			zap.String("new_date", newDate.Format("2006-01-02")))
	}

	// The recurring event is the template for the replacement: same
	// time-of-day, timezone and attendees, only the date moves.
	template, err := s.cal.Get(ctx, *cr.CalendarEventID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.cal.Occurrences(ctx, *cr.CalendarEventID)
	if err != nil {
		return nil, err
	}
	matched := false
	for _, occ := range occurrences {
		if !occ.SameDay(sess.Date) {
			continue
		}
		matched = true
		if occ.Cancelled {
			break
		}
		// Quietly: the replacement is announced by email below.
		if err := s.cal.CancelOccurrence(ctx, occ, false); err != nil {
			return nil, err
		}
		break
	}
	if !matched {
		s.log.Warn("no occurrence found for session date, creating replacement anyway",
			zap.Int("course_id", courseID), zap.Int("session", sessionNumber),
			zap.String("date", sess.Date.Format("2006-01-02")))
	}

	start := combine(newDate, template.Start)
	end := combine(newDate, template.End)
	replacement := calendar.Event{
		Summary:     template.Summary,
		Location:    template.Location,
		Description: template.Description,
		Start:       start,
		End:         end,
		TimeZone:    template.TimeZone,
		Attendees:   template.Attendees,
	}
	standaloneID, err := s.cal.CreateStandalone(ctx, replacement, true)
	if err != nil {
		return nil, err
	}

	if err := s.academic.RescheduleSession(ctx, courseID, sessionNumber, newDate, &standaloneID); err != nil {
		return nil, err
	}

	// Authoritative state is consistent from here on; email is best effort.
	students, err := s.academic.CourseStudents(ctx, courseID)
	if err != nil {
		s.log.Warn("roster load for reschedule notice failed",
			zap.Int("course_id", courseID), zap.Error(err))
		students = nil
	}
	subject := fmt.Sprintf("Cambio de fecha: Tu clase de %s", cr.RoomName)
	body := mail.Render(map[string]string{
		mail.VarRoomURL:   cr.RoomURL,
		mail.VarStartDate: newDate.Format("02-01-2006"),
		mail.VarRoomName:  cr.RoomName,
		mail.VarViewerKey: cr.ViewerKey,
	})
	notified := 0
	for _, st := range students {
		if err := s.mailer.Send(ctx, []string{st.Email}, subject, body); err != nil {
			s.log.Warn("reschedule notice failed, continuing",
				zap.String("student_id", st.ID), zap.Error(err))
			continue
		}
		notified++
	}

	s.log.Info("session rescheduled",
		zap.Int("course_id", courseID), zap.Int("session", sessionNumber),
		zap.String("from", sess.Date.Format("2006-01-02")),
		zap.String("to", newDate.Format("2006-01-02")),
		zap.String("standalone_event_id", standaloneID))
	return &model.InvitationResponse{Message: "session rescheduled", EmailsSent: notified}, nil
}

// InvitationLedger lists which students have already been invited to a
// course.
func (s *InvitationService) InvitationLedger(ctx context.Context, courseID int) ([]model.InvitationDTO, error) {
	if _, err := s.academic.CourseRoom(ctx, courseID); err != nil {
		return nil, err
	}
	invitations, err := s.academic.InvitationsForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dtos := make([]model.InvitationDTO, 0, len(invitations))
	for _, inv := range invitations {
		dtos = append(dtos, model.InvitationDTO{StudentID: inv.StudentID, URL: inv.URL})
	}
	return dtos, nil
}

// SessionHistory returns every session row of a course, suspended history
// included, for auditing reschedules.
func (s *InvitationService) SessionHistory(ctx context.Context, courseID int) ([]model.SessionDTO, error) {
	if _, err := s.academic.CourseRoom(ctx, courseID); err != nil {
		return nil, err
	}
	sessions, err := s.academic.Sessions(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dtos := make([]model.SessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		dto := model.SessionDTO{
			SessionNumber: sess.Number,
			Date:          sess.Date.Format("2006-01-02"),
			Status:        sess.Status,
			Active:        sess.Active,
		}
		if sess.MovedTo != nil {
			dto.MovedTo = sess.MovedTo.Format("2006-01-02")
		}
		if sess.CalendarEventID != nil {
			dto.CalendarEventID = *sess.CalendarEventID
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// SyncCalendar cancels every occurrence of the course's recurring event
// whose date is no longer an active session date. Idempotent: already
// cancelled occurrences are skipped.
func (s *InvitationService) SyncCalendar(ctx context.Context, courseID int) (int, error) {
	cr, err := s.academic.CourseRoom(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if cr.CalendarEventID == nil || *cr.CalendarEventID == "" {
		return 0, errs.ErrNoCalendarEvent
	}

	sessions, err := s.academic.ActiveSessions(ctx, courseID)
	if err != nil {
		return 0, err
	}
	active := make(map[string]bool, len(sessions))
	for _, sess := range sessions {
		active[sess.Date.Format("2006-01-02")] = true
	}

	occurrences, err := s.cal.Occurrences(ctx, *cr.CalendarEventID)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, occ := range occurrences {
		if occ.Cancelled {
			continue
		}
		day, err := occ.Day()
		if err != nil {
			s.log.Warn("unparseable occurrence, skipping",
				zap.Int("course_id", courseID), zap.String("occurrence_id", occ.ID), zap.Error(err))
			continue
		}
		if active[day.Format("2006-01-02")] {
			continue
		}
		if err := s.cal.CancelOccurrence(ctx, occ, false); err != nil {
			return cancelled, err
		}
		cancelled++
	}

	s.log.Info("calendar synchronized",
		zap.Int("course_id", courseID), zap.Int("cancelled", cancelled))
	return cancelled, nil
}
