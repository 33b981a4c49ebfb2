package people

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
)

var ErrInvalidCategory = errors.New("invalid registration category")

// PeopleService handles account and profile operations
type PeopleService struct {
	deps *deps.Deps
	now  func() time.Time
}

var peopleService *PeopleService

// Init creates the people service over the shared dependencies
func Init(d *deps.Deps) {
	peopleService = &PeopleService{deps: d, now: func() time.Time { return time.Now().UTC() }}
}

func toUserRead(u *relational.User) *models.UserRead {
	return &models.UserRead{
		UserID:               u.UserID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		AvatarURL:            u.AvatarURL,
		Biography:            u.Biography,
		Phone:                u.Phone,
		RegID:                u.RegID,
		RegistrationCategory: models.RegistrationCategory(u.RegistrationCategory),
	}
}

// CreateUser stores a new account and mirrors it into the graph
func (s *PeopleService) CreateUser(ctx context.Context, req *models.UserCreate) (*models.UserRead, error) {
	category := req.RegistrationCategory.OrDefault()
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, req.RegistrationCategory)
	}

	email := strings.TrimSpace(req.Email)
	if _, err := s.deps.Relational.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", relational.ErrDuplicate, email)
	} else if !errors.Is(err, relational.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &relational.User{
		UserID:               uuid.New(),
		Email:                email,
		PasswordHash:         hash,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		AvatarURL:            req.AvatarURL,
		Biography:            req.Biography,
		Phone:                req.Phone,
		RegistrationCategory: string(category),
		ValidFrom:            now,
		ValidTo:              relational.Infinity,
	}
	if err := s.deps.Relational.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.deps.Graph.UpsertUser(ctx, graphUser(user)); err != nil {
		// Keep both stores in step
		if delErr := s.deps.Relational.DeleteUser(ctx, user.UserID); delErr != nil {
			log.Printf("[PEOPLE]: Failed to roll back user %s: %v", user.UserID, delErr)
		}
		return nil, fmt.Errorf("failed to create user in graph: %w", err)
	}

	log.Printf("[PEOPLE]: Created user %s", user.UserID)
	return toUserRead(user), nil
}

func graphUser(u *relational.User) graph.User {
	g := graph.User{
		UserID:               u.UserID.String(),
		FullName:             u.FullName(),
		Email:                u.Email,
		RegistrationCategory: u.RegistrationCategory,
	}
	if u.RegID != nil {
		g.RegID = *u.RegID
	}
	return g
}

// GetUser returns the public view of a user
func (s *PeopleService) GetUser(ctx context.Context, userID uuid.UUID) (*models.UserRead, error) {
	user, err := s.deps.Relational.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserRead(user), nil
}

// DeleteUser removes the account from both stores
func (s *PeopleService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.deps.Relational.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := s.deps.Graph.DeleteUser(ctx, userID.String()); err != nil && !errors.Is(err, graph.ErrUserNotFound) {
		return fmt.Errorf("failed to delete user from graph: %w", err)
	}

	log.Printf("[PEOPLE]: Deleted user %s", userID)
	return nil
}

// UpdateUser resolves the submitted profile entries to canonical vocabulary,
// records the temporal links and merges the result into the graph
func (s *PeopleService) UpdateUser(ctx context.Context, req *models.UserUpdate) (result *models.UserUpdateResult, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ProfileUpdates.WithLabelValues(outcome).Inc()
	}()

	if _, err := s.deps.Relational.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	n := s.deps.Normalizer
	result = &models.UserUpdateResult{UserID: req.UserID}
	profile := graph.Profile{
		UserID:            req.UserID.String(),
		Universities:      req.Universities,
		DesiredIndustries: req.DesiredIndustries,
		YearsOfExperience: req.YearsOfExperience,
	}

	for _, skill := range req.UserSkills {
		item, match, err := n.ResolveSkillInterest(ctx, models.VocabularySkill, skill.SkillName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve skill %q: %w", skill.SkillName, err)
		}
		assignedAt, validFrom, validTo := relational.Window(skill.Validity, now)
		if err := s.deps.Relational.UpsertUserSkill(ctx, &relational.UserSkill{
			UserID: req.UserID, SkillInterestID: item.SkillInterestID,
			AssignedAt: assignedAt, ValidFrom: validFrom, ValidTo: validTo,
		}); err != nil {
			return nil, err
		}
		profile.Skills = append(profile.Skills, graph.Link{Name: item.Name, ValidFrom: validFrom, ValidTo: validTo})
		result.Skills = append(result.Skills, item.Name)
		result.Matches = append(result.Matches, match)
	}

	for _, interest := range req.UserInterests {
		item, match, err := n.ResolveSkillInterest(ctx, models.VocabularyInterest, interest.InterestName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve interest %q: %w", interest.InterestName, err)
		}
		assignedAt, validFrom, validTo := relational.Window(interest.Validity, now)
		if err := s.deps.Relational.UpsertUserInterest(ctx, &relational.UserInterest{
			UserID: req.UserID, SkillInterestID: item.SkillInterestID,
			AssignedAt: assignedAt, ValidFrom: validFrom, ValidTo: validTo,
		}); err != nil {
			return nil, err
		}
		profile.Interests = append(profile.Interests, graph.Link{Name: item.Name, ValidFrom: validFrom, ValidTo: validTo})
		result.Interests = append(result.Interests, item.Name)
		result.Matches = append(result.Matches, match)
	}

	// The last submitted role becomes the current one in the graph
	for _, role := range req.UserJobRoles {
		item, match, err := n.ResolveJobRole(ctx, role.JobRoleTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve job role %q: %w", role.JobRoleTitle, err)
		}
		assignedAt, validFrom, validTo := relational.Window(role.Validity, now)
		if err := s.deps.Relational.UpsertUserJobRole(ctx, &relational.UserJobRole{
			UserID: req.UserID, JobRoleID: item.JobRoleID,
			AssignedAt: assignedAt, ValidFrom: validFrom, ValidTo: validTo,
		}); err != nil {
			return nil, err
		}
		profile.JobRole = item.Name
		result.JobRoles = append(result.JobRoles, item.Name)
		result.Matches = append(result.Matches, match)
	}

	if req.UserCompany != nil {
		company, match, err := n.ResolveCompany(ctx, req.UserCompany.CompanyName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve company %q: %w", req.UserCompany.CompanyName, err)
		}
		assignedAt, validFrom, validTo := relational.Window(req.UserCompany.Validity, now)
		if err := s.deps.Relational.SetUserCompany(ctx, &relational.UserCompany{
			UserID: req.UserID, CompanyID: company.CompanyID,
			AssignedAt: assignedAt, ValidFrom: validFrom, ValidTo: validTo,
		}); err != nil {
			return nil, err
		}
		profile.Company = &graph.Link{Name: company.Name, ValidFrom: validFrom, ValidTo: validTo}
		result.Company = company.Name
		result.Matches = append(result.Matches, match)
	}

	if strings.TrimSpace(req.Location) != "" {
		location, match, err := n.ResolveLocation(ctx, req.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve location %q: %w", req.Location, err)
		}
		if err := s.deps.Relational.SetUserLocation(ctx, &relational.UserLocation{
			UserID: req.UserID, LocationID: location.LocationID,
			AssignedAt: now, ValidFrom: now, ValidTo: relational.Infinity,
		}); err != nil {
			return nil, err
		}
		profile.Location = location.Name
		result.Location = location.Name
		result.Matches = append(result.Matches, match)
	}

	if err := s.deps.Graph.MergeProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update graph profile: %w", err)
	}
	s.deps.Refresher.NotifyUpdate()

	log.Printf("[PEOPLE]: Updated profile of %s (%d matches)", req.UserID, len(result.Matches))
	return result, nil
}

// ensureUser reports relational.ErrNotFound for unknown users
func (s *PeopleService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.deps.Relational.GetUser(ctx, userID)
	return err
}

// Recommend returns one category of people recommendations
func (s *PeopleService) Recommend(ctx context.Context, userID uuid.UUID, category models.RecommendationCategory, limit int) (*models.RecommendationList[models.Candidate], error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	recs, err := s.deps.Engine.Category(ctx, userID.String(), category, limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.Candidate{}
	}
	return &models.RecommendationList[models.Candidate]{UserID: userID.String(), Category: category.Label(), Recommendations: recs}, nil
}

// RecommendUnified returns the weighted ranking across all categories
func (s *PeopleService) RecommendUnified(ctx context.Context, userID uuid.UUID, limit int) (*models.RecommendationList[models.UnifiedRecommendation], error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	recs, err := s.deps.Engine.Unified(ctx, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.UnifiedRecommendation{}
	}
	return &models.RecommendationList[models.UnifiedRecommendation]{
		UserID:          userID.String(),
		Category:        models.RecommendUnified.Label(),
		Recommendations: recs,
	}, nil
}

// RecommendEvents returns events matching the user's interests
func (s *PeopleService) RecommendEvents(ctx context.Context, userID uuid.UUID, limit int) (*models.RecommendationList[models.EventRecommendation], error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	recs, err := s.deps.Engine.Events(ctx, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.EventRecommendation{}
	}
	return &models.RecommendationList[models.EventRecommendation]{UserID: userID.String(), Category: "Recommended Events", Recommendations: recs}, nil
}

// History returns the last unified ranking served to the user
func (s *PeopleService) History(ctx context.Context, userID uuid.UUID) ([]models.RecommendationSnapshot, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.deps.Engine.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.RecommendationSnapshot{}
	}
	return rows, nil
}
