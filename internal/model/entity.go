package model

import "time"

// User — room owner in the room store (GORM).
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"size:255"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Room — virtual meeting room entity (GORM).
type Room struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string    `gorm:"size:255;not null"`
	MeetingID       string    `gorm:"column:meeting_id;size:64;not null;uniqueIndex"`
	UserID          string    `gorm:"type:uuid;not null;index"`
	FriendlyID      string    `gorm:"column:friendly_id;size:32;not null;uniqueIndex"`
	CalendarEventID *string   `gorm:"column:calendar_event_id;size:128"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`

	Options    []RoomMeetingOption `gorm:"foreignKey:RoomID"`
	Recordings []Recording         `gorm:"foreignKey:RoomID"`
}

func (Room) TableName() string { return "rooms" }

// RoomMeetingOption — one provider option row for a room (GORM).
// Moderator and viewer access codes live here, not on the room row.
type RoomMeetingOption struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	RoomID          string    `gorm:"type:uuid;not null;index"`
	MeetingOptionID string    `gorm:"column:meeting_option_id;type:uuid;not null"`
	Value           string    `gorm:"size:255"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (RoomMeetingOption) TableName() string { return "room_meeting_options" }

// Recording — one recorded meeting of a room (GORM).
type Recording struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID    string    `gorm:"type:uuid;not null;index"`
	RecordID  string    `gorm:"column:record_id;size:128;not null;uniqueIndex"`
	Name      string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Formats []RecordingFormat `gorm:"foreignKey:RecordingID"`
}

func (Recording) TableName() string { return "recordings" }

// RecordingFormat — one playable rendition of a recording (GORM).
type RecordingFormat struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecordingID string    `gorm:"type:uuid;not null;index"`
	Format      string    `gorm:"size:32;not null"` // presentation, podcast, ...
	URL         string    `gorm:"size:512"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (RecordingFormat) TableName() string { return "formats" }

// SharedAccess — a grant letting another user manage a room (GORM).
type SharedAccess struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID    string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SharedAccess) TableName() string { return "shared_accesses" }
