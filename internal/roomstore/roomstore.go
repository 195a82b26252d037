// Package roomstore persists rooms in the meeting platform's Postgres
// database. The schema is owned by the platform; this store only writes the
// rows the platform itself would have written when a user creates a room
// through its UI.
package roomstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
)

// The platform's fixed meeting_options keys. A new room gets one option row
// per key; the access codes live in option rows, not on the room itself.
const (
	optRecord        = "99216802-f366-4919-bc4e-925b04749790"
	optGlAnyoneJoin  = "114d9563-9c30-41f0-b9ac-864f49e51881"
	optMuteOnStart   = "b9f32073-cef4-4450-927b-0262f35114ac"
	optGuestPolicy   = "c825fe4c-b0d9-4382-9007-6b3976ca3ec3"
	optAnyoneStart   = "8e9aef23-838b-4685-ab4a-fe1212f4e23a"
	optAccessCodes   = "788e5166-e587-4fb7-b973-bdf820268a72"
	optWelcomeMsg    = "c0c811cb-0f8f-46f2-a7ae-7603da3d2a10"
	optModeratorCode = "c04c2d89-4a10-4811-ac98-5804f94918c1"
	optViewerCode    = "18c3d4ea-5098-419b-8e08-27773ae82df1"
	optShareable     = "cec29aa7-7597-4a48-94e3-9a74f595be40"
)

type optionValue struct {
	optionID string
	value    string
}

func defaultOptions(moderatorKey, viewerKey string) []optionValue {
	return []optionValue{
		{optRecord, "false"},
		{optGlAnyoneJoin, "true"},
		{optMuteOnStart, "false"},
		{optGuestPolicy, "false"},
		{optAnyoneStart, "true"},
		{optAccessCodes, "MODERATOR_CODE_VIEWER_CODE"},
		{optWelcomeMsg, ""},
		{optModeratorCode, moderatorKey},
		{optViewerCode, viewerKey},
		{optShareable, "false"},
	}
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateRoom inserts the room and its option rows in one transaction. The
// owner must already exist in the platform's users table.
func (s *Store) CreateRoom(ctx context.Context, name, ownerEmail, meetingID, friendlyID, moderatorKey, viewerKey string) (*model.Room, error) {
	var room *model.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.User
		if err := tx.Where("email = ?", ownerEmail).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrUserNotFound
			}
			return err
		}

		room = &model.Room{
			ID:         uuid.New().String(),
			Name:       name,
			MeetingID:  meetingID,
			UserID:     owner.ID,
			FriendlyID: friendlyID,
		}
		if err := tx.Create(room).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, opt := range defaultOptions(moderatorKey, viewerKey) {
			row := &model.RoomMeetingOption{
				ID:              uuid.New().String(),
				RoomID:          room.ID,
				MeetingOptionID: opt.optionID,
				Value:           opt.value,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("roomstore: create room %q: %w", name, err)
	}
	return room, nil
}

// DeleteRoom removes the room and everything hanging off it. The platform
// has no ON DELETE CASCADE on these tables, so children go first: options,
// recording formats, recordings, shared accesses, then the room row.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&model.RoomMeetingOption{}).Error; err != nil {
			return err
		}

		var recordingIDs []string
		if err := tx.Model(&model.Recording{}).Where("room_id = ?", roomID).
			Pluck("id", &recordingIDs).Error; err != nil {
			return err
		}
		if len(recordingIDs) > 0 {
			if err := tx.Where("recording_id IN ?", recordingIDs).Delete(&model.RecordingFormat{}).Error; err != nil {
				return err
			}
			if err := tx.Where("room_id = ?", roomID).Delete(&model.Recording{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("room_id = ?", roomID).Delete(&model.SharedAccess{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", roomID).Delete(&model.Room{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrRoomNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			return err
		}
		return fmt.Errorf("roomstore: delete room %s: %w", roomID, err)
	}
	return nil
}

// Recordings lists the published recordings of a room, newest first.
func (s *Store) Recordings(ctx context.Context, roomID string) ([]model.RecordingInfo, error) {
	var rows []model.Recording
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).
		Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("roomstore: recordings of room %s: %w", roomID, err)
	}
	infos := make([]model.RecordingInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, model.RecordingInfo{RecordID: r.RecordID, CreatedAt: r.CreatedAt})
	}
	return infos, nil
}

// CalendarEventID returns the event recorded on the room row, or "" when the
// room carries none.
func (s *Store) CalendarEventID(ctx context.Context, roomID string) (string, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Select("calendar_event_id").Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.ErrRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("roomstore: calendar id of room %s: %w", roomID, err)
	}
	if room.CalendarEventID == nil {
		return "", nil
	}
	return *room.CalendarEventID, nil
}
