// Package relational is the system of record for profiles, vocabulary and events.
package relational

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrConflict  = errors.New("record is in a conflicting state")
)

// Store defines the relational storage operations used by the service
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	FindSkillInterestByName(ctx context.Context, name string) (*SkillInterest, error)
	NearestSkillInterests(ctx context.Context, embedding []float32, limit int) ([]ScoredSkillInterest, error)
	MatchSkillInterestText(ctx context.Context, ids []uuid.UUID, text string) (*SkillInterest, error)
	CreateSkillInterest(ctx context.Context, item *SkillInterest) error
	FindOrCreateCompany(ctx context.Context, name string) (*Company, error)
	FindOrCreateJobRole(ctx context.Context, name string) (*JobRole, error)
	FindOrCreateLocation(ctx context.Context, name string) (*Location, error)
	SeedVocabulary(ctx context.Context, kind models.VocabularyKind, name string, embedding []float32) (bool, error)

	UpsertUserSkill(ctx context.Context, link *UserSkill) error
	UpsertUserInterest(ctx context.Context, link *UserInterest) error
	UpsertUserJobRole(ctx context.Context, link *UserJobRole) error
	SetUserCompany(ctx context.Context, link *UserCompany) error
	SetUserLocation(ctx context.Context, link *UserLocation) error

	CreateConference(ctx context.Context, conference *Conference) error
	GetConference(ctx context.Context, conferenceID uuid.UUID) (*Conference, error)
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, conferenceID uuid.UUID) ([]Event, error)

	CreateRegistration(ctx context.Context, reg *Registration) error
	GetRegistration(ctx context.Context, regID string) (*Registration, error)
	ClaimRegistration(ctx context.Context, regID string, userID uuid.UUID, at time.Time) (*Registration, error)

	RecordAttendance(ctx context.Context, attendance *EventAttendance) error
	RecordFeedback(ctx context.Context, feedback *EventFeedback) error

	SaveRecommendations(ctx context.Context, userID uuid.UUID, recs []Recommendation) error
	ListRecommendations(ctx context.Context, userID uuid.UUID) ([]Recommendation, error)
}

// Window resolves optional validity fields against now, defaulting the end to Infinity
func Window(v models.Validity, now time.Time) (assignedAt, validFrom, validTo time.Time) {
	assignedAt, validFrom, validTo = now, now, Infinity
	if v.AssignedAt != nil {
		assignedAt = *v.AssignedAt
	}
	if v.ValidFrom != nil {
		validFrom = *v.ValidFrom
	}
	if v.ValidTo != nil {
		validTo = *v.ValidTo
	}
	return assignedAt, validFrom, validTo
}
