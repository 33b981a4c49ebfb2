package models

import "github.com/google/uuid"

// Commonality keys shared between category and unified recommendations
const (
	SharedCompanies    = "SharedCompanies"
	SharedLocations    = "SharedLocations"
	SharedUniversities = "SharedUniversities"
	CommonInterests    = "CommonInterests"
	CommonSkills       = "CommonSkills"
)

// CommonalityKeys lists every commonality key in display order
var CommonalityKeys = []string{SharedCompanies, SharedLocations, SharedUniversities, CommonInterests, CommonSkills}

// Candidate is a single recommended person from one similarity category
type Candidate struct {
	UserID          string              `json:"UserID"`
	RecommendedUser string              `json:"RecommendedUser"`
	Role            *string             `json:"Role"`
	YearsExperience *int64              `json:"YearsExperience"`
	SimilarityScore float64             `json:"SimilarityScore"`
	Commonalities   map[string][]string `json:"Commonalities,omitempty"`
	Category        string              `json:"Category"`
}

// CategoryScores holds the per-category similarity of a unified recommendation
type CategoryScores struct {
	Demographics float64 `json:"Demographics"`
	Interests    float64 `json:"Interests"`
	Skills       float64 `json:"Skills"`
}

// UnifiedRecommendation is a person ranked across all categories
type UnifiedRecommendation struct {
	UserID          string              `json:"UserID"`
	RecommendedUser string              `json:"RecommendedUser"`
	Role            *string             `json:"Role"`
	YearsExperience *int64              `json:"YearsExperience"`
	Scores          CategoryScores      `json:"Scores"`
	FinalScore      float64             `json:"FinalScore"`
	Commonalities   map[string][]string `json:"Commonalities"`
}

// RecommendationList is the response body of every people recommendation endpoint
type RecommendationList[T any] struct {
	UserID          string `json:"user_id"`
	Category        string `json:"category"`
	Recommendations []T    `json:"recommendations"`
}

// EventRecommendation is an event suggested from a user's interests
type EventRecommendation struct {
	EventID       string   `json:"event_id"`
	ConferenceID  string   `json:"conference_id,omitempty"`
	Title         string   `json:"title"`
	EventType     string   `json:"event_type"`
	MatchedTopics []string `json:"matched_topics"`
	Score         float64  `json:"score"`
}

// RecommendationSnapshot is a persisted unified ranking row
type RecommendationSnapshot struct {
	UserID            uuid.UUID `json:"user_id"`
	RecommendedUserID uuid.UUID `json:"recommended_user_id"`
	Score             float64   `json:"score"`
	Context           string    `json:"context"`
}
