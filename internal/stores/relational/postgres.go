package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore is the gorm/PostgreSQL implementation of Store
type PostgresStore struct {
	db *gorm.DB
}

// DSN builds a PostgreSQL connection string from its parts
func DSN(host, port, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host, port, user, password, dbname, sslmode)
}

// NewStore opens a PostgreSQL connection and migrates the schema
func NewStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// migrate enables pgvector and creates or updates the tables
func (s *PostgresStore) migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}
	return s.db.AutoMigrate(allModels()...)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// DeleteUser removes the user together with every profile link and snapshot
func (s *PostgresStore) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&UserSkill{}, &UserInterest{}, &UserJobRole{}, &UserCompany{}, &UserLocation{},
			&EventAttendance{}, &EventFeedback{}} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? OR recommended_user_id = ?", userID, userID).Delete(&Recommendation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Registration{}).Where("user_id = ?", userID).
			Updates(map[string]any{"user_id": nil, "claimed_by_user_at": nil, "status": string(models.RegistrationPreRegistered)}).Error; err != nil {
			return err
		}

		result := tx.Where("user_id = ?", userID).Delete(&User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) FindSkillInterestByName(ctx context.Context, name string) (*SkillInterest, error) {
	var item SkillInterest
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// NearestSkillInterests orders the vocabulary by L2 distance to the embedding
func (s *PostgresStore) NearestSkillInterests(ctx context.Context, embedding []float32, limit int) ([]ScoredSkillInterest, error) {
	var rows []ScoredSkillInterest
	err := s.db.WithContext(ctx).Model(&SkillInterest{}).
		Select("*, embedding <-> ? AS distance", pgvector.NewVector(embedding)).
		Where("embedding IS NOT NULL").
		Order("distance").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest skills: %w", err)
	}
	return rows, nil
}

// MatchSkillInterestText returns the best full-text match for text among ids
func (s *PostgresStore) MatchSkillInterestText(ctx context.Context, ids []uuid.UUID, text string) (*SkillInterest, error) {
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	var item SkillInterest
	result := s.db.WithContext(ctx).Raw(`
		SELECT * FROM skills_interests
		WHERE skill_interest_id IN ?
		  AND to_tsvector('english', name) @@ plainto_tsquery('english', ?)
		ORDER BY ts_rank(to_tsvector('english', name), plainto_tsquery('english', ?)) DESC
		LIMIT 1`, ids, text, text).Scan(&item)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to run text match: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *PostgresStore) CreateSkillInterest(ctx context.Context, item *SkillInterest) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create skill: %w", translate(err))
	}
	return nil
}

// findOrCreateByName resolves a unique-name vocabulary row, tolerating a concurrent insert
func findOrCreateByName[T any](ctx context.Context, db *gorm.DB, name string, build func() *T) (*T, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	var out T
	err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&out).Error
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := build()
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *PostgresStore) FindOrCreateCompany(ctx context.Context, name string) (*Company, error) {
	return findOrCreateByName(ctx, s.db, name, func() *Company {
		now := time.Now().UTC()
		return &Company{CompanyID: uuid.New(), Name: strings.TrimSpace(name), ValidFrom: now, ValidTo: Infinity}
	})
}

func (s *PostgresStore) FindOrCreateJobRole(ctx context.Context, name string) (*JobRole, error) {
	return findOrCreateByName(ctx, s.db, name, func() *JobRole {
		now := time.Now().UTC()
		return &JobRole{JobRoleID: uuid.New(), Name: strings.TrimSpace(name), ValidFrom: now, ValidTo: Infinity}
	})
}

func (s *PostgresStore) FindOrCreateLocation(ctx context.Context, name string) (*Location, error) {
	return findOrCreateByName(ctx, s.db, name, func() *Location {
		now := time.Now().UTC()
		return &Location{LocationID: uuid.New(), Name: strings.TrimSpace(name), ValidFrom: now, ValidTo: Infinity}
	})
}

// SeedVocabulary inserts a canonical vocabulary entry, filling in a missing
// embedding on an existing one. It reports whether anything changed.
func (s *PostgresStore) SeedVocabulary(ctx context.Context, kind models.VocabularyKind, name string, embedding []float32) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("name cannot be empty")
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}
	now := time.Now().UTC()

	switch kind {
	case models.VocabularySkill, models.VocabularyInterest:
		var existing SkillInterest
		err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?) AND category = ?", name, string(kind)).First(&existing).Error
		if err == nil {
			if existing.Embedding != nil || vec == nil {
				return false, nil
			}
			return true, s.db.WithContext(ctx).Model(&existing).Update("embedding", vec).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		return true, s.CreateSkillInterest(ctx, &SkillInterest{
			SkillInterestID: uuid.New(), Name: name, Category: string(kind), Embedding: vec, ValidFrom: now, ValidTo: Infinity,
		})
	case models.VocabularyJobRole:
		return s.seedNamed(ctx, &JobRole{}, name, vec, func() any {
			return &JobRole{JobRoleID: uuid.New(), Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		})
	case models.VocabularyCompany:
		return s.seedNamed(ctx, &Company{}, name, vec, func() any {
			return &Company{CompanyID: uuid.New(), Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		})
	case models.VocabularyLocation:
		return s.seedNamed(ctx, &Location{}, name, vec, func() any {
			return &Location{LocationID: uuid.New(), Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		})
	}
	return false, fmt.Errorf("unknown vocabulary kind %q", kind)
}

func (s *PostgresStore) seedNamed(ctx context.Context, model any, name string, vec *pgvector.Vector, build func() any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(build())
		return result.RowsAffected > 0, result.Error
	}
	if vec == nil {
		return false, nil
	}
	result := s.db.WithContext(ctx).Model(model).
		Where("LOWER(name) = LOWER(?) AND embedding IS NULL", name).
		Update("embedding", vec)
	return result.RowsAffected > 0, result.Error
}

func (s *PostgresStore) upsert(ctx context.Context, link any) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(link).Error
}

func (s *PostgresStore) UpsertUserSkill(ctx context.Context, link *UserSkill) error {
	return s.upsert(ctx, link)
}

func (s *PostgresStore) UpsertUserInterest(ctx context.Context, link *UserInterest) error {
	return s.upsert(ctx, link)
}

func (s *PostgresStore) UpsertUserJobRole(ctx context.Context, link *UserJobRole) error {
	return s.upsert(ctx, link)
}

// SetUserCompany makes the link the user's current company, closing any other open one
func (s *PostgresStore) SetUserCompany(ctx context.Context, link *UserCompany) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&UserCompany{}).
			Where("user_id = ? AND company_id <> ? AND valid_to > ?", link.UserID, link.CompanyID, link.ValidFrom).
			Update("valid_to", link.ValidFrom).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(link).Error
	})
}

// SetUserLocation makes the link the user's current location, closing any other open one
func (s *PostgresStore) SetUserLocation(ctx context.Context, link *UserLocation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&UserLocation{}).
			Where("user_id = ? AND location_id <> ? AND valid_to > ?", link.UserID, link.LocationID, link.ValidFrom).
			Update("valid_to", link.ValidFrom).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(link).Error
	})
}

func (s *PostgresStore) CreateConference(ctx context.Context, conference *Conference) error {
	if err := s.db.WithContext(ctx).Create(conference).Error; err != nil {
		return fmt.Errorf("failed to create conference: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) GetConference(ctx context.Context, conferenceID uuid.UUID) (*Conference, error) {
	var conference Conference
	if err := s.db.WithContext(ctx).Where("conference_id = ?", conferenceID).First(&conference).Error; err != nil {
		return nil, translate(err)
	}
	return &conference, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	var event Event
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, conferenceID uuid.UUID) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).Where("conference_id = ?", conferenceID).Order("start_time, title").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) CreateRegistration(ctx context.Context, reg *Registration) error {
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *PostgresStore) GetRegistration(ctx context.Context, regID string) (*Registration, error) {
	var reg Registration
	if err := s.db.WithContext(ctx).Where("reg_id = ?", regID).First(&reg).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// ClaimRegistration binds a registration code to a user. Claiming a code the
// same user already holds is a no-op.
func (s *PostgresStore) ClaimRegistration(ctx context.Context, regID string, userID uuid.UUID, at time.Time) (*Registration, error) {
	var reg Registration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("reg_id = ?", regID).First(&reg).Error; err != nil {
			return translate(err)
		}
		if err := claimable(&reg, userID); err != nil {
			return err
		}
		if reg.Status == string(models.RegistrationClaimed) {
			return nil
		}

		reg.UserID = &userID
		reg.ClaimedByUserAt = &at
		reg.Status = string(models.RegistrationClaimed)
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).Where("user_id = ?", userID).Update("reg_id", regID).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// claimable checks the registration can be claimed by userID
func claimable(reg *Registration, userID uuid.UUID) error {
	switch models.RegistrationStatus(reg.Status) {
	case models.RegistrationCancelled:
		return fmt.Errorf("%w: registration %s is cancelled", ErrConflict, reg.RegID)
	case models.RegistrationClaimed:
		if reg.UserID == nil || *reg.UserID != userID {
			return fmt.Errorf("%w: registration %s is already claimed", ErrConflict, reg.RegID)
		}
	}
	return nil
}

func (s *PostgresStore) RecordAttendance(ctx context.Context, attendance *EventAttendance) error {
	return s.upsert(ctx, attendance)
}

func (s *PostgresStore) RecordFeedback(ctx context.Context, feedback *EventFeedback) error {
	return s.db.WithContext(ctx).Create(feedback).Error
}

// SaveRecommendations replaces the user's stored snapshot
func (s *PostgresStore) SaveRecommendations(ctx context.Context, userID uuid.UUID, recs []Recommendation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&Recommendation{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.CreateInBatches(recs, 100).Error
	})
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	var recs []Recommendation
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("score DESC").Find(&recs).Error
	return recs, err
}
