// Package graph holds the relationship graph used for similarity and recommendations.
package graph

import (
	"context"
	"errors"
	"time"

	"github.com/nexxt/connect/pkg/models"
)

var ErrUserNotFound = errors.New("user not found in graph")

// User is the graph projection of an account
type User struct {
	UserID               string
	FullName             string
	Email                string
	RegID                string
	RegistrationCategory string
}

// OpenEnded is the validTo written for links without an end date
var OpenEnded = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)

// Link is a named neighbour with an optional validity window
type Link struct {
	Name      string
	ValidFrom time.Time
	ValidTo   time.Time
}

// Profile is the set of profile facts merged onto a user node. Empty fields
// leave the existing graph untouched.
type Profile struct {
	UserID            string
	Skills            []Link
	Expertise         []Link
	Interests         []Link
	JobRole           string
	Company           *Link
	Location          string
	Universities      []string
	DesiredIndustries []string
	YearsOfExperience *int
}

// Conference is the graph projection of a conference
type Conference struct {
	ConferenceID string
	Name         string
	Location     string
	OrganizerID  string
}

// Event is the graph projection of a conference event
type Event struct {
	EventID      string
	ConferenceID string
	Title        string
	EventType    string
	Location     string
	Topics       []string
	OrganizerID  string
	PresenterIDs []string
	ExhibitorIDs []string
}

// Projection describes one similarity computation over a subgraph
type Projection struct {
	Name              string
	Category          models.RecommendationCategory
	NodeLabels        []string
	RelationshipTypes []string
	WriteType         string
}

// Projections are the similarity subgraphs refreshed in order
var Projections = []Projection{
	{
		Name:              "user_demographics_graph",
		Category:          models.RecommendDemographics,
		NodeLabels:        []string{"User", "Company", "Location", "University", "Conference", "Event"},
		RelationshipTypes: []string{"WORKS_AT", "WORKED_AT", "LIVES_IN", "STUDIED_AT", "REGISTERED_FOR", "ATTENDS", "HAS_EVENT", "ORGANIZES", "EXHIBITS_AT", "PRESENTS_AT"},
		WriteType:         "SIMILAR_DEMO",
	},
	{
		Name:              "user_interest_graph",
		Category:          models.RecommendInterests,
		NodeLabels:        []string{"User", "Interest", "Industry"},
		RelationshipTypes: []string{"HAS_INTEREST", "DESIRES_INDUSTRY"},
		WriteType:         "SIMILAR_INTEREST",
	},
	{
		Name:              "user_skill_graph",
		Category:          models.RecommendSkills,
		NodeLabels:        []string{"User", "Skill"},
		RelationshipTypes: []string{"HAS_SKILL"},
		WriteType:         "SIMILAR_SKILL",
	},
}

// ProjectionFor returns the projection that feeds category
func ProjectionFor(category models.RecommendationCategory) (Projection, bool) {
	for _, p := range Projections {
		if p.Category == category {
			return p, true
		}
	}
	return Projection{}, false
}

// SimilarityOptions tune the node similarity write
type SimilarityOptions struct {
	TopK   int
	Cutoff float64
}

// DefaultSimilarityOptions matches the values the recommendation queries expect
var DefaultSimilarityOptions = SimilarityOptions{TopK: 50, Cutoff: 0.0}

// Projection run outcomes
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ProjectionResult is the outcome of refreshing one projection
type ProjectionResult struct {
	Name                 string `json:"name"`
	WriteType            string `json:"write_type"`
	Status               string `json:"status"`
	NodesCompared        int64  `json:"nodes_compared"`
	RelationshipsWritten int64  `json:"relationships_written"`
	Error                string `json:"error,omitempty"`
}

// Store defines the graph operations used by the service
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	UpsertUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, userID string) error
	MergeProfile(ctx context.Context, profile Profile) error
	ApplyTranscript(ctx context.Context, profile Profile) (bool, error)

	UpsertConference(ctx context.Context, conference Conference) error
	UpsertEvent(ctx context.Context, event Event) error
	RegisterForConference(ctx context.Context, userID, conferenceID, regID string) error
	RecordAttendance(ctx context.Context, userID, eventID, status string) error
	RecordFeedback(ctx context.Context, userID, eventID string, interested bool) error

	Recommend(ctx context.Context, userID string, category models.RecommendationCategory, limit int) ([]models.Candidate, error)
	RecommendEvents(ctx context.Context, userID string, limit int) ([]models.EventRecommendation, error)
	RefreshSimilarities(ctx context.Context, opts SimilarityOptions) ([]ProjectionResult, error)
}
