package model

import "time"

// Session status tags as stored in the academic store.
const (
	SessionNormal    = "NORMAL"
	SessionSuspended = "SUSPENDED"
)

// CourseRoom links an academic course to a room, with denormalized room
// fields and the weekly schedule. It is the source of truth for what the
// recurring calendar event should look like.
type CourseRoom struct {
	CourseID        int
	RoomID          *string
	RoomName        string
	RoomURL         string
	ModeratorKey    string
	ViewerKey       string
	MeetingID       string
	FriendlyID      string
	RecordID        string
	CalendarEventID *string

	// Schedule. Either all populated or all zero; see HasSchedule.
	StartDate time.Time
	EndDate   time.Time
	Days      string // canonical two-letter day codes, e.g. "LU,MI"
	StartTime time.Time
	EndTime   time.Time
}

// HasSchedule reports whether the weekly schedule fields are populated.
func (c *CourseRoom) HasSchedule() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.Days != "" &&
		!c.StartTime.IsZero() && !c.EndTime.IsZero()
}

// Invitation is the per (course, student) ledger row. Its existence is the
// sole idempotency signal: present means "remind", absent means "invite".
type Invitation struct {
	CourseID  int
	StudentID string
	URL       string
	CreatedAt time.Time
}

// CourseSession is one scheduled class meeting. Reschedules insert a new row
// for the new date and suspend the old one; rows are never rewritten in place.
type CourseSession struct {
	CourseID        int
	Number          int
	Date            time.Time // calendar date; time-of-day is ignored
	Status          string    // SessionNormal or SessionSuspended
	Active          bool
	MovedTo         *time.Time
	CalendarEventID *string
}

// Student is one enrolled student with a deliverable address.
type Student struct {
	ID    string
	Email string
}

// RecordingInfo is the room-store view of a recording used for playback URLs.
type RecordingInfo struct {
	RecordID  string
	CreatedAt time.Time
}
