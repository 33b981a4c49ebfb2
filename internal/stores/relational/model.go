package relational

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the size of every vector(...) column below. The
// configured embedder has to produce vectors of exactly this size.
const EmbeddingDimensions = 384

// Infinity is the open end of every temporal validity window
var Infinity = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)

// User is a platform account
type User struct {
	UserID               uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid;primaryKey"`
	Email                string    `json:"email" gorm:"column:email;size:255;uniqueIndex;not null"`
	PasswordHash         string    `json:"-" gorm:"column:password_hash;type:text;not null"`
	FirstName            string    `json:"first_name" gorm:"column:first_name;type:text;not null"`
	LastName             string    `json:"last_name" gorm:"column:last_name;type:text;not null"`
	AvatarURL            string    `json:"avatar_url" gorm:"column:avatar_url;type:text"`
	Biography            string    `json:"biography" gorm:"column:biography;type:text"`
	Phone                string    `json:"phone" gorm:"column:phone;type:text"`
	RegID                *string   `json:"reg_id" gorm:"column:reg_id;size:255"`
	RegistrationCategory string    `json:"registration_category" gorm:"column:registration_category;size:50;not null;default:attendee"`
	ValidFrom            time.Time `json:"valid_from" gorm:"column:valid_from;not null"`
	ValidTo              time.Time `json:"valid_to" gorm:"column:valid_to;not null"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// SkillInterest is the shared skill/interest vocabulary
type SkillInterest struct {
	SkillInterestID uuid.UUID        `gorm:"column:skill_interest_id;type:uuid;primaryKey"`
	Name            string           `gorm:"column:name;size:255;not null;index"`
	Category        string           `gorm:"column:category;size:100;not null"`
	Embedding       *pgvector.Vector `gorm:"column:embedding;type:vector(384)"`
	ValidFrom       time.Time        `gorm:"column:valid_from;not null"`
	ValidTo         time.Time        `gorm:"column:valid_to;not null"`
}

func (SkillInterest) TableName() string { return "skills_interests" }

// ScoredSkillInterest is a vocabulary entry with its vector distance to a query
type ScoredSkillInterest struct {
	SkillInterest `gorm:"embedded"`
	Distance      float64 `gorm:"column:distance"`
}

// JobRole is the job role vocabulary
type JobRole struct {
	JobRoleID uuid.UUID        `gorm:"column:job_role_id;type:uuid;primaryKey"`
	Name      string           `gorm:"column:name;size:255;not null;uniqueIndex"`
	Embedding *pgvector.Vector `gorm:"column:embedding;type:vector(384)"`
	ValidFrom time.Time        `gorm:"column:valid_from;not null"`
	ValidTo   time.Time        `gorm:"column:valid_to;not null"`
}

func (JobRole) TableName() string { return "job_roles" }

// Company is the company vocabulary
type Company struct {
	CompanyID uuid.UUID        `gorm:"column:company_id;type:uuid;primaryKey"`
	Name      string           `gorm:"column:name;size:255;not null;uniqueIndex"`
	Embedding *pgvector.Vector `gorm:"column:embedding;type:vector(384)"`
	ValidFrom time.Time        `gorm:"column:valid_from;not null"`
	ValidTo   time.Time        `gorm:"column:valid_to;not null"`
}

func (Company) TableName() string { return "companies" }

// Location is the location vocabulary
type Location struct {
	LocationID uuid.UUID        `gorm:"column:location_id;type:uuid;primaryKey"`
	Name       string           `gorm:"column:name;type:text;not null;uniqueIndex"`
	Address    string           `gorm:"column:address;type:text"`
	Embedding  *pgvector.Vector `gorm:"column:embedding;type:vector(384)"`
	ValidFrom  time.Time        `gorm:"column:valid_from;not null"`
	ValidTo    time.Time        `gorm:"column:valid_to;not null"`
}

func (Location) TableName() string { return "locations" }

// UserSkill links a user to a skill for a validity window
type UserSkill struct {
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	SkillInterestID uuid.UUID `gorm:"column:skill_interest_id;type:uuid;primaryKey"`
	AssignedAt      time.Time `gorm:"column:assigned_at;not null"`
	ValidFrom       time.Time `gorm:"column:valid_from;not null"`
	ValidTo         time.Time `gorm:"column:valid_to;not null"`
}

func (UserSkill) TableName() string { return "user_skills" }

// UserInterest links a user to an interest for a validity window
type UserInterest struct {
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	SkillInterestID uuid.UUID `gorm:"column:skill_interest_id;type:uuid;primaryKey"`
	AssignedAt      time.Time `gorm:"column:assigned_at;not null"`
	ValidFrom       time.Time `gorm:"column:valid_from;not null"`
	ValidTo         time.Time `gorm:"column:valid_to;not null"`
}

func (UserInterest) TableName() string { return "user_interests" }

// UserJobRole links a user to a job role for a validity window
type UserJobRole struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	JobRoleID  uuid.UUID `gorm:"column:job_role_id;type:uuid;primaryKey"`
	AssignedAt time.Time `gorm:"column:assigned_at;not null"`
	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidTo    time.Time `gorm:"column:valid_to;not null"`
}

func (UserJobRole) TableName() string { return "user_job_role" }

// UserCompany links a user to a company for a validity window
type UserCompany struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CompanyID  uuid.UUID `gorm:"column:company_id;type:uuid;primaryKey"`
	AssignedAt time.Time `gorm:"column:assigned_at;not null"`
	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidTo    time.Time `gorm:"column:valid_to;not null"`
}

func (UserCompany) TableName() string { return "user_company" }

// UserLocation links a user to a location for a validity window
type UserLocation struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	AssignedAt time.Time `gorm:"column:assigned_at;not null"`
	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidTo    time.Time `gorm:"column:valid_to;not null"`
}

func (UserLocation) TableName() string { return "user_location" }

// Conference is an organizer-run conference
type Conference struct {
	ConferenceID uuid.UUID  `gorm:"column:conference_id;type:uuid;primaryKey"`
	Name         string     `gorm:"column:name;type:text;not null"`
	Description  string     `gorm:"column:description;type:text"`
	StartDate    time.Time  `gorm:"column:start_date;not null"`
	EndDate      time.Time  `gorm:"column:end_date;not null"`
	LocationID   *uuid.UUID `gorm:"column:location_id;type:uuid"`
	LocationName string     `gorm:"column:location;type:text"`
	VenueDetails string     `gorm:"column:venue_details;type:text"`
	LogoURL      string     `gorm:"column:logo_url;type:text"`
	WebsiteURL   string     `gorm:"column:website_url;type:text"`
	OrganizerID  *uuid.UUID `gorm:"column:organizer_id;type:uuid"`
	ValidFrom    time.Time  `gorm:"column:valid_from;not null"`
	ValidTo      time.Time  `gorm:"column:valid_to;not null"`
}

func (Conference) TableName() string { return "conferences" }

// Event is a component event (talk, exhibition, workshop...) of a conference
type Event struct {
	EventID      uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey"`
	ConferenceID uuid.UUID  `gorm:"column:conference_id;type:uuid;not null;index"`
	Title        string     `gorm:"column:title;type:text;not null"`
	Description  string     `gorm:"column:description;type:text"`
	EventType    string     `gorm:"column:event_type;size:50;not null"`
	VenueDetails string     `gorm:"column:venue_details;type:text"`
	LocationID   *uuid.UUID `gorm:"column:location_id;type:uuid"`
	LocationName string     `gorm:"column:location;type:text"`
	StartTime    time.Time  `gorm:"column:start_time;not null"`
	EndTime      time.Time  `gorm:"column:end_time;not null"`
	OrganizerID  *uuid.UUID `gorm:"column:organizer_id;type:uuid"`
	Topics       []string   `gorm:"column:topics;serializer:json"`
	IndustryTags []string   `gorm:"column:industry_tags;serializer:json"`
	ValidFrom    time.Time  `gorm:"column:valid_from;not null"`
	ValidTo      time.Time  `gorm:"column:valid_to;not null"`
}

func (Event) TableName() string { return "events" }

// Registration is an organizer-issued registration code
type Registration struct {
	RegID                   string     `gorm:"column:reg_id;size:255;primaryKey"`
	ConferenceID            uuid.UUID  `gorm:"column:conference_id;type:uuid;not null;index"`
	UserID                  *uuid.UUID `gorm:"column:user_id;type:uuid"`
	RegisteredByOrganizerAt time.Time  `gorm:"column:registered_by_organizer_at;not null"`
	ClaimedByUserAt         *time.Time `gorm:"column:claimed_by_user_at"`
	Status                  string     `gorm:"column:status;size:50;not null;default:pre_registered"`
	ValidFrom               time.Time  `gorm:"column:valid_from;not null"`
	ValidTo                 time.Time  `gorm:"column:valid_to;not null"`
}

func (Registration) TableName() string { return "user_registrations" }

// EventAttendance records a user's presence at an event
type EventAttendance struct {
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	EventID          uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	AttendanceStatus string    `gorm:"column:attendance_status;size:50;not null"`
	AttendedAt       time.Time `gorm:"column:attended_at"`
	ValidFrom        time.Time `gorm:"column:valid_from;not null"`
	ValidTo          time.Time `gorm:"column:valid_to;not null"`
}

func (EventAttendance) TableName() string { return "event_attendance" }

// EventFeedback records whether a user is interested in an event
type EventFeedback struct {
	FeedbackID   uuid.UUID `gorm:"column:feedback_id;type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	EventID      uuid.UUID `gorm:"column:event_id;type:uuid;not null"`
	IsInterested bool      `gorm:"column:is_interested;not null"`
	Comment      string    `gorm:"column:comment;type:text"`
	FeedbackAt   time.Time `gorm:"column:feedback_at;not null"`
}

func (EventFeedback) TableName() string { return "event_feedback" }

// Recommendation is a row of the last unified ranking served to a user
type Recommendation struct {
	RecommendationID  uuid.UUID `gorm:"column:recommendation_id;type:uuid;primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	RecommendedUserID uuid.UUID `gorm:"column:recommended_user_id;type:uuid;not null"`
	Score             float64   `gorm:"column:score;not null"`
	Context           string    `gorm:"column:context;size:255"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
	ValidFrom         time.Time `gorm:"column:valid_from;not null"`
	ValidTo           time.Time `gorm:"column:valid_to;not null"`
}

func (Recommendation) TableName() string { return "recommendations" }

// allModels lists every table managed by AutoMigrate
func allModels() []any {
	return []any{
		&User{}, &SkillInterest{}, &JobRole{}, &Company{}, &Location{},
		&UserSkill{}, &UserInterest{}, &UserJobRole{}, &UserCompany{}, &UserLocation{},
		&Conference{}, &Event{}, &Registration{}, &EventAttendance{}, &EventFeedback{},
		&Recommendation{},
	}
}
