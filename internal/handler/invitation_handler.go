package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
	"github.com/Nurfog/bbbAPIGL/internal/service"
)

// InvitationHandler handles the invitation, schedule and session endpoints.
type InvitationHandler struct {
	svc *service.InvitationService
	log *zap.Logger
}

func NewInvitationHandler(svc *service.InvitationService, log *zap.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, log: log}
}

// respond maps the domain error taxonomy onto HTTP codes: not-found to 404,
// invalid-state to 400, everything else to a logged 500.
func (h *InvitationHandler) respond(c *gin.Context, resp any, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, errs.ErrCourseNotFound),
		errors.Is(err, errs.ErrStudentNotFound),
		errors.Is(err, errs.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNoSchedule),
		errors.Is(err, errs.ErrNoCalendarEvent),
		errors.Is(err, errs.ErrEmptyDayCodes):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("invitation operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// SendCourseInvitations godoc
// POST /apiv2/invitations/:courseID
func (h *InvitationHandler) SendCourseInvitations(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.SendCourseInvitations(c.Request.Context(), courseID)
	h.respond(c, resp, err)
}

// SendIndividualInvitation godoc
// POST /apiv2/invitations/individual/:studentID/:courseID
func (h *InvitationHandler) SendIndividualInvitation(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	studentID := c.Param("studentID")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id required"})
		return
	}
	resp, err := h.svc.SendIndividualInvitation(c.Request.Context(), courseID, studentID)
	h.respond(c, resp, err)
}

// Invitations godoc
// GET /apiv2/invitations/:courseID
func (h *InvitationHandler) Invitations(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	ledger, err := h.svc.InvitationLedger(c.Request.Context(), courseID)
	h.respond(c, ledger, err)
}

// UpdateCourseEvent godoc
// PUT /apiv2/invitations/:courseID
func (h *InvitationHandler) UpdateCourseEvent(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	var req model.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	req.CourseID = courseID
	resp, err := h.svc.UpdateCourseEvent(c.Request.Context(), req)
	h.respond(c, resp, err)
}

// SyncCalendar godoc
// POST /apiv2/invitations/:courseID/sync
func (h *InvitationHandler) SyncCalendar(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	cancelled, err := h.svc.SyncCalendar(c.Request.Context(), courseID)
	if err != nil {
		h.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled_occurrences": cancelled})
}

// Sessions godoc
// GET /apiv2/sessions/:courseID
func (h *InvitationHandler) Sessions(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	sessions, err := h.svc.SessionHistory(c.Request.Context(), courseID)
	h.respond(c, sessions, err)
}

// RescheduleSession godoc
// POST /apiv2/sessions/:courseID/:sessionNumber/reschedule
func (h *InvitationHandler) RescheduleSession(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	sessionNumber, err := strconv.Atoi(c.Param("sessionNumber"))
	if err != nil || sessionNumber <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session number must be a positive integer"})
		return
	}
	var req model.RescheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	resp, err := h.svc.RescheduleSession(c.Request.Context(), courseID, sessionNumber, req.NewDate)
	h.respond(c, resp, err)
}
