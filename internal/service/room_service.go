package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/calendar"
	"github.com/Nurfog/bbbAPIGL/internal/model"
	"github.com/Nurfog/bbbAPIGL/internal/storage"
)

// RoomService creates and tears down rooms, keeping the academic store's
// cross-references in step. Room and link writes live in different
// databases, so teardown is ordered best-effort rather than transactional.
type RoomService struct {
	rooms     RoomStore
	academic  AcademicStore
	cal       calendar.Service
	presigner storage.Presigner // nil when S3 is not configured
	publicURL string
	log       *zap.Logger
}

func NewRoomService(rooms RoomStore, academic AcademicStore, cal calendar.Service, presigner storage.Presigner, publicURL string, log *zap.Logger) *RoomService {
	return &RoomService{
		rooms:     rooms,
		academic:  academic,
		cal:       cal,
		presigner: presigner,
		publicURL: publicURL,
		log:       log,
	}
}

const keyChars = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomKey(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = keyChars[rand.Intn(len(keyChars))]
	}
	return string(b)
}

func friendlyID() string {
	groups := make([]string, 4)
	for i := range groups {
		groups[i] = randomKey(3)
	}
	return strings.Join(groups, "-")
}

// CreateRoom provisions a room with fresh ids and access keys, then links it
// to the course in the academic store. The room insert is atomic; a link
// failure afterwards leaves a usable room and is reported to the caller.
func (s *RoomService) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.CreateRoomResponse, error) {
	meetingID := uuid.New().String()
	friendly := friendlyID()
	moderatorKey := randomKey(8)
	viewerKey := randomKey(8)
	recordID := fmt.Sprintf("%s-%d", meetingID, time.Now().Unix())

	room, err := s.rooms.CreateRoom(ctx, req.Name, req.CreatorEmail, meetingID, friendly, moderatorKey, viewerKey)
	if err != nil {
		return nil, err
	}

	resp := &model.CreateRoomResponse{
		RoomID:       room.ID,
		RoomName:     room.Name,
		RoomURL:      fmt.Sprintf("%s/rooms/%s/join", s.publicURL, friendly),
		ModeratorKey: moderatorKey,
		ViewerKey:    viewerKey,
		MeetingID:    meetingID,
		RecordID:     recordID,
		FriendlyID:   friendly,
	}

	if req.CourseID != 0 {
		link := &model.CourseRoom{
			CourseID:     req.CourseID,
			RoomID:       &room.ID,
			RoomName:     room.Name,
			RoomURL:      resp.RoomURL,
			ModeratorKey: moderatorKey,
			ViewerKey:    viewerKey,
			MeetingID:    meetingID,
			FriendlyID:   friendly,
			RecordID:     recordID,
		}
		if err := s.academic.UpsertCourseRoom(ctx, link); err != nil {
			return nil, fmt.Errorf("room created but course link failed: %w", err)
		}
	}

	s.log.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("friendly_id", friendly),
		zap.Int("course_id", req.CourseID))
	return resp, nil
}

// DeleteRoom tears a room down: calendar event first (best effort), then
// the room and its dependents in one transaction, then the academic store's
// references to it.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	eventID, err := s.rooms.CalendarEventID(ctx, roomID)
	if err != nil {
		return err
	}
	if eventID == "" {
		// Older rooms record the event on the academic link row instead.
		if eventID, err = s.academic.CalendarIDForRoom(ctx, roomID); err != nil {
			s.log.Warn("calendar id lookup failed, continuing with room deletion",
				zap.String("room_id", roomID), zap.Error(err))
			eventID = ""
		}
	}
	if eventID != "" {
		if err := s.cal.Delete(ctx, eventID); err != nil {
			s.log.Warn("calendar event delete failed, continuing with room deletion",
				zap.String("room_id", roomID), zap.String("event_id", eventID), zap.Error(err))
		}
	}

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	if err := s.academic.ClearRoomReferences(ctx, roomID); err != nil {
		// The room is gone; stale references are repaired on the next
		// course operation, so report success anyway.
		s.log.Error("failed to clear course references to deleted room",
			zap.String("room_id", roomID), zap.Error(err))
	}

	s.log.Info("room deleted", zap.String("room_id", roomID))
	return nil
}

// DeleteCourse removes a course's invitation ledger and link row, deleting
// the course's recurring calendar event best-effort on the way.
func (s *RoomService) DeleteCourse(ctx context.Context, courseID int) error {
	cr, err := s.academic.CourseRoom(ctx, courseID)
	if err != nil {
		return err
	}
	if cr.CalendarEventID != nil && *cr.CalendarEventID != "" {
		if err := s.cal.Delete(ctx, *cr.CalendarEventID); err != nil {
			s.log.Warn("course calendar event delete failed, continuing",
				zap.Int("course_id", courseID),
				zap.String("event_id", *cr.CalendarEventID), zap.Error(err))
		}
	}

	deleted, err := s.academic.DeleteInvitations(ctx, courseID)
	if err != nil {
		return err
	}
	s.log.Info("course invitations deleted",
		zap.Int("course_id", courseID), zap.Int64("rows", deleted))

	return s.academic.DeleteCourse(ctx, courseID)
}

// RecordingURLs lists the playback links for a course's room recordings.
// With S3 configured the links are presigned; otherwise they point at the
// public player.
func (s *RoomService) RecordingURLs(ctx context.Context, courseID int) ([]model.RecordingDTO, error) {
	cr, err := s.academic.CourseRoom(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if cr.RoomID == nil || *cr.RoomID == "" {
		return []model.RecordingDTO{}, nil
	}

	recordings, err := s.rooms.Recordings(ctx, *cr.RoomID)
	if err != nil {
		return nil, err
	}

	dtos := make([]model.RecordingDTO, 0, len(recordings))
	for _, rec := range recordings {
		url := storage.PlaybackURL(s.publicURL, rec.RecordID)
		if s.presigner != nil {
			presigned, err := s.presigner.PresignedURL(ctx, rec.RecordID)
			if err != nil {
				s.log.Warn("presign failed, falling back to public playback url",
					zap.String("record_id", rec.RecordID), zap.Error(err))
			} else {
				url = presigned
			}
		}
		dtos = append(dtos, model.RecordingDTO{
			RecordID:    rec.RecordID,
			CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
			PlaybackURL: url,
		})
	}
	return dtos, nil
}
