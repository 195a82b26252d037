package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
	"github.com/Nurfog/bbbAPIGL/internal/service"
)

// RoomHandler handles the room and course lifecycle endpoints.
type RoomHandler struct {
	svc *service.RoomService
	log *zap.Logger
}

func NewRoomHandler(svc *service.RoomService, log *zap.Logger) *RoomHandler {
	return &RoomHandler{svc: svc, log: log}
}

// CreateRoom godoc
// POST /apiv2/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	resp, err := h.svc.CreateRoom(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "creator user not found"})
			return
		}
		h.log.Error("create room failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DeleteRoom godoc
// DELETE /apiv2/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id must be a uuid"})
		return
	}
	if err := h.svc.DeleteRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		h.log.Error("delete room failed", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCourse godoc
// DELETE /apiv2/courses/:courseID
func (h *RoomHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteCourse(c.Request.Context(), courseID); err != nil {
		if errors.Is(err, errs.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		h.log.Error("delete course failed", zap.Int("course_id", courseID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete course"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Recordings godoc
// GET /apiv2/recordings/:courseID
func (h *RoomHandler) Recordings(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	recordings, err := h.svc.RecordingURLs(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, errs.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		h.log.Error("list recordings failed", zap.Int("course_id", courseID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recordings"})
		return
	}
	c.JSON(http.StatusOK, recordings)
}

func courseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("courseID"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course id must be a positive integer"})
		return 0, false
	}
	return id, true
}
