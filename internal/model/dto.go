package model

import "time"

// CreateRoomRequest is the request body for POST /rooms.
type CreateRoomRequest struct {
	Name         string `json:"name" binding:"required"`
	CreatorEmail string `json:"creator_email" binding:"required,email"`
	CourseID     int    `json:"course_id" binding:"required"`
}

// CreateRoomResponse is the response for POST /rooms.
type CreateRoomResponse struct {
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	RoomURL      string `json:"room_url"`
	ModeratorKey string `json:"moderator_key"`
	ViewerKey    string `json:"viewer_key"`
	MeetingID    string `json:"meeting_id"`
	RecordID     string `json:"record_id"`
	FriendlyID   string `json:"friendly_id"`
}

// InvitationResponse reports the outcome of an invitation operation.
type InvitationResponse struct {
	Message    string `json:"message"`
	EmailsSent int    `json:"emails_sent"`
}

// UpdateEventRequest is the body for PUT /invitations/:courseID. Nil fields
// fall back to the stored schedule; Participants nil means "full roster".
type UpdateEventRequest struct {
	CourseID     int        `json:"-"`
	Participants []string   `json:"participants"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Days         *string    `json:"days"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
}

// RescheduleSessionRequest is the body for the session reschedule endpoint.
type RescheduleSessionRequest struct {
	NewDate time.Time `json:"new_date" binding:"required" time_format:"2006-01-02"`
}

// InvitationDTO is one ledger row: a student who has already been invited.
type InvitationDTO struct {
	StudentID string `json:"student_id"`
	URL       string `json:"url"`
}

// SessionDTO is one session row in a course's session history.
type SessionDTO struct {
	SessionNumber   int    `json:"session_number"`
	Date            string `json:"date"`
	Status          string `json:"status"`
	Active          bool   `json:"active"`
	MovedTo         string `json:"moved_to,omitempty"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
}

// RecordingDTO is one playable recording of a course room.
type RecordingDTO struct {
	RecordID    string `json:"record_id"`
	CreatedAt   string `json:"created_at"`
	PlaybackURL string `json:"playback_url"`
}
