package roomstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
)

// openTestDB builds an in-memory database with the room-store schema. The
// production schema uses Postgres defaults the sqlite driver cannot parse,
// so the tables are created directly; the store always assigns ids itself.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY, name TEXT, email TEXT NOT NULL UNIQUE,
			created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE rooms (
			id TEXT PRIMARY KEY, name TEXT NOT NULL, meeting_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL, friendly_id TEXT NOT NULL UNIQUE,
			calendar_event_id TEXT, created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE room_meeting_options (
			id TEXT PRIMARY KEY, room_id TEXT NOT NULL, meeting_option_id TEXT NOT NULL,
			value TEXT, created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE recordings (
			id TEXT PRIMARY KEY, room_id TEXT NOT NULL, record_id TEXT NOT NULL UNIQUE,
			name TEXT, created_at DATETIME)`,
		`CREATE TABLE formats (
			id TEXT PRIMARY KEY, recording_id TEXT NOT NULL, format TEXT NOT NULL,
			url TEXT, created_at DATETIME)`,
		`CREATE TABLE shared_accesses (
			id TEXT PRIMARY KEY, room_id TEXT NOT NULL, user_id TEXT NOT NULL,
			created_at DATETIME)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	u := model.User{ID: uuid.New().String(), Name: "Test Owner", Email: email}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateRoom(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	seedUser(t, db, "owner@example.edu")

	room, err := store.CreateRoom(context.Background(), "Inglés Avanzado", "owner@example.edu",
		"meeting-1", "abc-def-ghi-jkl", "modkey12", "viewkey1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID == "" {
		t.Fatal("room id not assigned")
	}

	var options []model.RoomMeetingOption
	if err := db.Where("room_id = ?", room.ID).Find(&options).Error; err != nil {
		t.Fatalf("load options: %v", err)
	}
	if len(options) != 10 {
		t.Fatalf("got %d option rows, want 10", len(options))
	}
	values := map[string]string{}
	for _, opt := range options {
		values[opt.MeetingOptionID] = opt.Value
	}
	if values[optModeratorCode] != "modkey12" {
		t.Errorf("moderator code option = %q, want modkey12", values[optModeratorCode])
	}
	if values[optViewerCode] != "viewkey1" {
		t.Errorf("viewer code option = %q, want viewkey1", values[optViewerCode])
	}
}

func TestCreateRoomUnknownOwner(t *testing.T) {
	db := openTestDB(t)
	store := New(db)

	_, err := store.CreateRoom(context.Background(), "Sala", "nobody@example.edu",
		"meeting-2", "aaa-bbb-ccc-ddd", "k1", "k2")
	if !errors.Is(err, errs.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	var count int64
	db.Model(&model.Room{}).Count(&count)
	if count != 0 {
		t.Fatalf("room rows after failed create = %d, want 0", count)
	}
}

func TestDeleteRoomCascade(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	owner := seedUser(t, db, "owner@example.edu")

	room := model.Room{ID: uuid.New().String(), Name: "Sala", MeetingID: "m-1",
		UserID: owner.ID, FriendlyID: "f-1"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	db.Create(&model.SharedAccess{ID: uuid.New().String(), RoomID: room.ID, UserID: owner.ID})
	db.Create(&model.RoomMeetingOption{ID: uuid.New().String(), RoomID: room.ID,
		MeetingOptionID: optRecord, Value: "false"})

	// Two recordings with three formats each.
	for i := 0; i < 2; i++ {
		rec := model.Recording{ID: uuid.New().String(), RoomID: room.ID,
			RecordID: fmt.Sprintf("rec-%d", i)}
		if err := db.Create(&rec).Error; err != nil {
			t.Fatalf("seed recording: %v", err)
		}
		for _, f := range []string{"presentation", "podcast", "video"} {
			db.Create(&model.RecordingFormat{ID: uuid.New().String(),
				RecordingID: rec.ID, Format: f})
		}
	}

	if err := store.DeleteRoom(context.Background(), room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}

	counts := map[string]interface{}{
		"rooms":                &model.Room{},
		"room_meeting_options": &model.RoomMeetingOption{},
		"recordings":           &model.Recording{},
		"formats":              &model.RecordingFormat{},
		"shared_accesses":      &model.SharedAccess{},
	}
	for table, m := range counts {
		var n int64
		db.Model(m).Count(&n)
		if n != 0 {
			t.Errorf("%s rows after delete = %d, want 0", table, n)
		}
	}
}

func TestDeleteRoomWithoutDependents(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	owner := seedUser(t, db, "owner@example.edu")

	room := model.Room{ID: uuid.New().String(), Name: "Sala", MeetingID: "m-2",
		UserID: owner.ID, FriendlyID: "f-2"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := store.DeleteRoom(context.Background(), room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
}

func TestDeleteRoomNotFound(t *testing.T) {
	db := openTestDB(t)
	store := New(db)

	err := store.DeleteRoom(context.Background(), uuid.New().String())
	if !errors.Is(err, errs.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestCalendarEventID(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	owner := seedUser(t, db, "owner@example.edu")

	eventID := "gcal-event-123"
	room := model.Room{ID: uuid.New().String(), Name: "Sala", MeetingID: "m-3",
		UserID: owner.ID, FriendlyID: "f-3", CalendarEventID: &eventID}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}

	got, err := store.CalendarEventID(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("CalendarEventID: %v", err)
	}
	if got != eventID {
		t.Errorf("got %q, want %q", got, eventID)
	}

	bare := model.Room{ID: uuid.New().String(), Name: "Sala 2", MeetingID: "m-4",
		UserID: owner.ID, FriendlyID: "f-4"}
	db.Create(&bare)
	got, err = store.CalendarEventID(context.Background(), bare.ID)
	if err != nil {
		t.Fatalf("CalendarEventID: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
