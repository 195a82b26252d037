package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes in handlers.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrStudentNotFound = errors.New("student not found for course")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSchedule      = errors.New("course has no schedule for a recurring event")
	ErrNoCalendarEvent = errors.New("room has no associated calendar event")
	ErrEmptyDayCodes   = errors.New("day codes translate to an empty weekday set")
)
