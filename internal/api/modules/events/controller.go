package events

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/sdk"
)

// MaxUploadBytes bounds the registration file size
const MaxUploadBytes = 5 << 20

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, relational.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, relational.ErrDuplicate), errors.Is(err, relational.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidEvent), errors.Is(err, ErrInvalidAttendance):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// conferenceIDParam parses the conference id path parameter, writing a 400 when it is malformed
func conferenceIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("conference_id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid conference id", err).AsGinResponse())
		return uuid.Nil, false
	}
	return id, true
}

// CreateConference handles POST requests to create a conference
func CreateConference(c *gin.Context) {
	var req models.ConferenceCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	conference, err := eventsService.CreateConference(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to create conference", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewCreatedResponse("Conference created successfully", conference).AsGinResponse())
}

// GetConference handles GET requests for a single conference
func GetConference(c *gin.Context) {
	id, ok := conferenceIDParam(c)
	if !ok {
		return
	}

	conference, err := eventsService.GetConference(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Conference not found", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Conference retrieved successfully", conference).AsGinResponse())
}

// CreateEvent handles POST requests to add an event to a conference
func CreateEvent(c *gin.Context) {
	id, ok := conferenceIDParam(c)
	if !ok {
		return
	}

	var req models.EventCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	event, err := eventsService.CreateEvent(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to create event", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewCreatedResponse("Event created successfully", event).AsGinResponse())
}

// ListEvents handles GET requests for the events of a conference
func ListEvents(c *gin.Context) {
	id, ok := conferenceIDParam(c)
	if !ok {
		return
	}

	events, err := eventsService.ListEvents(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to list events", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Events retrieved successfully", events).AsGinResponse())
}

// GetCalendar handles GET requests for the iCalendar export of a conference
func GetCalendar(c *gin.Context) {
	id, ok := conferenceIDParam(c)
	if !ok {
		return
	}

	calendar, err := eventsService.Calendar(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to build calendar", err).AsGinResponse())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+id.String()+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(calendar))
}

// UploadRegistrations handles multipart uploads of registration codes
func UploadRegistrations(c *gin.Context) {
	id, ok := conferenceIDParam(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "A registration file is required in the 'file' field", err).AsGinResponse())
		return
	}
	if header.Size > MaxUploadBytes {
		c.JSON(sdk.NewErrorResponse(http.StatusRequestEntityTooLarge, "Registration file is too large", header.Size).AsGinResponse())
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not read registration file", err).AsGinResponse())
		return
	}
	defer file.Close()

	resp, err := eventsService.UploadRegistrations(c.Request.Context(), id, filepath.Base(header.Filename), file)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to upload registrations", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(resp.Message, resp).AsGinResponse())
}

// ClaimRegistration handles POST requests from attendees claiming their code
func ClaimRegistration(c *gin.Context) {
	var req models.AttendeeClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	resp, err := eventsService.ClaimRegistration(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to claim registration", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(resp.Message, resp).AsGinResponse())
}

// RecordAttendance handles POST requests recording event attendance
func RecordAttendance(c *gin.Context) {
	var req models.EventAttendanceCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}
	if !ownsUser(c, req.UserID) {
		return
	}

	resp, err := eventsService.RecordAttendance(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to record attendance", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewCreatedResponse("Attendance recorded successfully", resp).AsGinResponse())
}

// RecordFeedback handles POST requests recording event feedback
func RecordFeedback(c *gin.Context) {
	var req models.EventFeedbackCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}
	if !ownsUser(c, req.UserID) {
		return
	}

	resp, err := eventsService.RecordFeedback(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to record feedback", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewCreatedResponse("Feedback recorded successfully", resp).AsGinResponse())
}

// ownsUser rejects requests whose token belongs to another user
func ownsUser(c *gin.Context, userID uuid.UUID) bool {
	if claims, ok := auth.ClaimsFrom(c); ok && claims.Subject != userID.String() {
		c.JSON(sdk.NewErrorResponse(http.StatusForbidden, "Token does not grant access to this user", nil).AsGinResponse())
		return false
	}
	return true
}
