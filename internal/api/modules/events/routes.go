package events

import (
	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
)

// Register routes for the events module
func RegisterRoutes(g *gin.RouterGroup, d *deps.Deps) {
	group := g.Group("/events")

	conferences := group.Group("/conferences")
	conferences.POST("/", CreateConference)
	conferences.GET("/:conference_id", GetConference)
	conferences.POST("/:conference_id/events/", CreateEvent)
	conferences.GET("/:conference_id/events", ListEvents)
	conferences.GET("/:conference_id/calendar.ics", GetCalendar)
	conferences.POST("/:conference_id/registrations/upload", UploadRegistrations)

	group.POST("/registrations/claim", ClaimRegistration)

	// The token subject is compared with the body's user_id in the handler
	guard := auth.Guard(d.Tokens, d.AuthRequired, "")
	group.POST("/attendance", guard, RecordAttendance)
	group.POST("/feedback", guard, RecordFeedback)
}
