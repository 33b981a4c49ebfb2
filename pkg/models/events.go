package models

import (
	"time"

	"github.com/google/uuid"
)

// ConferenceCreate is the payload for creating a conference
type ConferenceCreate struct {
	Name         string     `json:"name" binding:"required"`
	Description  string     `json:"description,omitempty"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      time.Time  `json:"end_date" binding:"required"`
	LocationName string     `json:"location_name,omitempty"`
	OrganizerID  *uuid.UUID `json:"organizer_id,omitempty"`
	LogoURL      string     `json:"logo_url,omitempty" binding:"omitempty,url"`
	WebsiteURL   string     `json:"website_url,omitempty" binding:"omitempty,url"`
	VenueDetails string     `json:"venue_details,omitempty"`
}

// ConferenceRead is a stored conference
type ConferenceRead struct {
	ConferenceID uuid.UUID `json:"conference_id"`
	ConferenceCreate
}

// EventCreate is the payload for creating a component event of a conference
type EventCreate struct {
	Title            string      `json:"title" binding:"required"`
	Description      string      `json:"description,omitempty"`
	EventType        EventType   `json:"event_type" binding:"required"`
	StartTime        time.Time   `json:"start_time" binding:"required"`
	EndTime          time.Time   `json:"end_time" binding:"required"`
	LocationName     string      `json:"location_name,omitempty"`
	VenueDetails     string      `json:"venue_details,omitempty"`
	Topics           []string    `json:"topics,omitempty"`
	IndustryTags     []string    `json:"industry_tags,omitempty"`
	PresenterUserIDs []uuid.UUID `json:"presenter_user_ids,omitempty"`
	ExhibitorUserIDs []uuid.UUID `json:"exhibitor_user_ids,omitempty"`
}

// EventRead is a stored event
type EventRead struct {
	EventID      uuid.UUID `json:"event_id"`
	ConferenceID uuid.UUID `json:"conference_id"`
	EventCreate
}

// EventCreateResponse is a created event plus any links that were skipped
type EventCreateResponse struct {
	EventRead
	Warnings []string `json:"warnings,omitempty"`
}

// RegistrationRead is an organizer-issued registration code and its claim state
type RegistrationRead struct {
	RegID                   string             `json:"reg_id"`
	ConferenceID            uuid.UUID          `json:"conference_id"`
	UserID                  *uuid.UUID         `json:"user_id,omitempty"`
	RegisteredByOrganizerAt time.Time          `json:"registered_by_organizer_at"`
	ClaimedByUserAt         *time.Time         `json:"claimed_by_user_at,omitempty"`
	Status                  RegistrationStatus `json:"status"`
}

// BulkRegistrationUploadResponse reports the outcome of a registration file upload
type BulkRegistrationUploadResponse struct {
	ConferenceID           uuid.UUID `json:"conference_id"`
	FileName               string    `json:"file_name"`
	TotalIDsInFile         int       `json:"total_ids_in_file"`
	SuccessfullyRegistered int       `json:"successfully_registered"`
	SkippedDuplicates      int       `json:"skipped_duplicates"`
	FailedEntries          []string  `json:"failed_entries"`
	Message                string    `json:"message"`
}

// AttendeeClaimRequest claims a registration code for an existing account
type AttendeeClaimRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	RegID    string `json:"reg_id" binding:"required,min=1,max=100"`
}

// AttendeeClaimResponse is returned after a successful claim
type AttendeeClaimResponse struct {
	Message             string    `json:"message"`
	UserID              uuid.UUID `json:"user_id"`
	ClaimedRegID        string    `json:"claimed_reg_id"`
	ClaimedConferenceID uuid.UUID `json:"claimed_conference_id"`
	ConferenceName      string    `json:"conference_name"`
	AccessToken         string    `json:"access_token,omitempty"`
	TokenType           string    `json:"token_type,omitempty"`
}

// EventAttendanceCreate records that a user attended an event
type EventAttendanceCreate struct {
	UserID  uuid.UUID        `json:"user_id" binding:"required"`
	EventID uuid.UUID        `json:"event_id" binding:"required"`
	Status  AttendanceStatus `json:"status,omitempty"`
}

// EventAttendanceRead is a stored attendance record
type EventAttendanceRead struct {
	EventAttendanceCreate
	AttendedAt time.Time `json:"attended_at"`
}

// EventFeedbackCreate records whether a user is interested in an event
type EventFeedbackCreate struct {
	UserID       uuid.UUID `json:"user_id" binding:"required"`
	EventID      uuid.UUID `json:"event_id" binding:"required"`
	IsInterested bool      `json:"is_interested"`
	Comment      string    `json:"comment,omitempty"`
}

// EventFeedbackRead is a stored feedback record
type EventFeedbackRead struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	EventFeedbackCreate
	FeedbackAt time.Time `json:"feedback_at"`
}
