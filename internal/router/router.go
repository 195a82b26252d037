package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nurfog/bbbAPIGL/internal/handler"
	"github.com/Nurfog/bbbAPIGL/pkg/constants"
)

// New builds the HTTP router.
func New(
	rooms *handler.RoomHandler,
	invitations *handler.InvitationHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	api := r.Group(constants.PathAPIBase)
	{
		api.POST("/rooms", rooms.CreateRoom)
		api.DELETE("/rooms/:id", rooms.DeleteRoom)
		api.GET("/recordings/:courseID", rooms.Recordings)
		api.DELETE("/courses/:courseID", rooms.DeleteCourse)

		api.POST("/invitations/:courseID", invitations.SendCourseInvitations)
		api.GET("/invitations/:courseID", invitations.Invitations)
		api.POST("/invitations/individual/:studentID/:courseID", invitations.SendIndividualInvitation)
		api.PUT("/invitations/:courseID", invitations.UpdateCourseEvent)
		api.POST("/invitations/:courseID/sync", invitations.SyncCalendar)

		api.GET("/sessions/:courseID", invitations.Sessions)
		api.POST("/sessions/:courseID/:sessionNumber/reschedule", invitations.RescheduleSession)
	}

	return r
}
