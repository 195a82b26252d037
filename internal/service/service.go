// Package service holds the two orchestrators: RoomService for room
// lifecycle across both stores, InvitationService for keeping the recurring
// calendar event, the invitation ledger and the session calendar in sync.
//
// Neither service serializes concurrent calls on the same course; callers
// must issue one logical operation per course at a time.
package service

import (
	"context"
	"time"

	"github.com/Nurfog/bbbAPIGL/internal/model"
)

// AcademicStore is the MySQL academic side: roster, course/room link,
// invitation ledger and session calendar.
type AcademicStore interface {
	CourseStudents(ctx context.Context, courseID int) ([]model.Student, error)
	StudentEmail(ctx context.Context, studentID string, courseID int) (string, error)

	CourseRoom(ctx context.Context, courseID int) (*model.CourseRoom, error)
	UpsertCourseRoom(ctx context.Context, cr *model.CourseRoom) error
	ClearRoomReferences(ctx context.Context, roomID string) error
	SetCourseCalendarID(ctx context.Context, courseID int, calendarEventID string) error
	CalendarIDForRoom(ctx context.Context, roomID string) (string, error)
	UpdateSchedule(ctx context.Context, courseID int, startDate, endDate time.Time, days string, startTime, endTime time.Time) error
	RefreshScheduleFromTimetable(ctx context.Context, courseID int) (bool, error)
	DeleteCourse(ctx context.Context, courseID int) error

	InvitationFor(ctx context.Context, courseID int, studentID string) (*model.Invitation, error)
	SaveInvitation(ctx context.Context, inv model.Invitation) error
	InvitationsForCourse(ctx context.Context, courseID int) ([]model.Invitation, error)
	DeleteInvitations(ctx context.Context, courseID int) (int64, error)

	ActiveSessions(ctx context.Context, courseID int) ([]model.CourseSession, error)
	Sessions(ctx context.Context, courseID int) ([]model.CourseSession, error)
	Session(ctx context.Context, courseID, number int) (*model.CourseSession, error)
	RescheduleSession(ctx context.Context, courseID, number int, newDate time.Time, calendarEventID *string) error
}

// RoomStore is the Postgres room side.
type RoomStore interface {
	CreateRoom(ctx context.Context, name, ownerEmail, meetingID, friendlyID, moderatorKey, viewerKey string) (*model.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	Recordings(ctx context.Context, roomID string) ([]model.RecordingInfo, error)
	CalendarEventID(ctx context.Context, roomID string) (string, error)
}
