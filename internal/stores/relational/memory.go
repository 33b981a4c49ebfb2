package relational

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/models"
	"github.com/pgvector/pgvector-go"
)

// InMemoryStore provides an in-memory implementation of Store for testing and
// for running without PostgreSQL
type InMemoryStore struct {
	users         map[uuid.UUID]*User
	skills        map[uuid.UUID]*SkillInterest
	jobRoles      map[uuid.UUID]*JobRole
	companies     map[uuid.UUID]*Company
	locations     map[uuid.UUID]*Location
	userSkills    map[[2]uuid.UUID]*UserSkill
	userInterests map[[2]uuid.UUID]*UserInterest
	userJobRoles  map[[2]uuid.UUID]*UserJobRole
	userCompanies map[[2]uuid.UUID]*UserCompany
	userLocations map[[2]uuid.UUID]*UserLocation
	conferences   map[uuid.UUID]*Conference
	events        map[uuid.UUID]*Event
	registrations map[string]*Registration
	attendance    map[[2]uuid.UUID]*EventAttendance
	feedback      []*EventFeedback
	snapshots     map[uuid.UUID][]Recommendation
	mutex         sync.RWMutex
}

// NewInMemoryStore creates a new in-memory relational store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[uuid.UUID]*User),
		skills:        make(map[uuid.UUID]*SkillInterest),
		jobRoles:      make(map[uuid.UUID]*JobRole),
		companies:     make(map[uuid.UUID]*Company),
		locations:     make(map[uuid.UUID]*Location),
		userSkills:    make(map[[2]uuid.UUID]*UserSkill),
		userInterests: make(map[[2]uuid.UUID]*UserInterest),
		userJobRoles:  make(map[[2]uuid.UUID]*UserJobRole),
		userCompanies: make(map[[2]uuid.UUID]*UserCompany),
		userLocations: make(map[[2]uuid.UUID]*UserLocation),
		conferences:   make(map[uuid.UUID]*Conference),
		events:        make(map[uuid.UUID]*Event),
		registrations: make(map[string]*Registration),
		attendance:    make(map[[2]uuid.UUID]*EventAttendance),
		snapshots:     make(map[uuid.UUID][]Recommendation),
	}
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return ErrDuplicate
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
	}

	userCopy := *user
	s.users[user.UserID] = &userCopy
	return nil
}

func (s *InMemoryStore) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.users[userID]; !exists {
		return ErrNotFound
	}
	delete(s.users, userID)

	deleteLinks(s.userSkills, userID)
	deleteLinks(s.userInterests, userID)
	deleteLinks(s.userJobRoles, userID)
	deleteLinks(s.userCompanies, userID)
	deleteLinks(s.userLocations, userID)
	deleteLinks(s.attendance, userID)

	s.feedback = slices.DeleteFunc(s.feedback, func(f *EventFeedback) bool { return f.UserID == userID })
	delete(s.snapshots, userID)
	for owner, recs := range s.snapshots {
		s.snapshots[owner] = slices.DeleteFunc(recs, func(r Recommendation) bool { return r.RecommendedUserID == userID })
	}
	for _, reg := range s.registrations {
		if reg.UserID != nil && *reg.UserID == userID {
			reg.UserID = nil
			reg.ClaimedByUserAt = nil
			reg.Status = string(models.RegistrationPreRegistered)
		}
	}
	return nil
}

func deleteLinks[T any](m map[[2]uuid.UUID]T, userID uuid.UUID) {
	for key := range m {
		if key[0] == userID {
			delete(m, key)
		}
	}
}

func (s *InMemoryStore) FindSkillInterestByName(ctx context.Context, name string) (*SkillInterest, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	name = strings.TrimSpace(name)
	for _, item := range s.sortedSkills() {
		if strings.EqualFold(item.Name, name) {
			itemCopy := *item
			return &itemCopy, nil
		}
	}
	return nil, ErrNotFound
}

// sortedSkills returns the vocabulary in a stable order; callers hold the lock
func (s *InMemoryStore) sortedSkills() []*SkillInterest {
	items := make([]*SkillInterest, 0, len(s.skills))
	for _, item := range s.skills {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Category < items[j].Category
	})
	return items
}

func (s *InMemoryStore) NearestSkillInterests(ctx context.Context, embedding []float32, limit int) ([]ScoredSkillInterest, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var rows []ScoredSkillInterest
	for _, item := range s.sortedSkills() {
		if item.Embedding == nil {
			continue
		}
		vec := item.Embedding.Slice()
		if len(vec) != len(embedding) {
			continue
		}
		rows = append(rows, ScoredSkillInterest{SkillInterest: *item, Distance: l2(vec, embedding)})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Distance < rows[j].Distance })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var textStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "in": true, "of": true, "on": true, "or": true, "the": true, "to": true, "for": true, "with": true,
}

// lexemes approximates the English text search configuration: lowercase words
// without stop words and with a trailing plural "s" removed
func lexemes(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []string
	for _, f := range fields {
		if textStopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}

func (s *InMemoryStore) MatchSkillInterestText(ctx context.Context, ids []uuid.UUID, text string) (*SkillInterest, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	query := lexemes(text)
	if len(query) == 0 {
		return nil, ErrNotFound
	}

	var best *SkillInterest
	bestRank := 0.0
	for _, id := range ids {
		item, ok := s.skills[id]
		if !ok {
			continue
		}
		words := lexemes(item.Name)
		if !containsAll(words, query) {
			continue
		}
		rank := float64(len(query)) / float64(len(words))
		if best == nil || rank > bestRank {
			best, bestRank = item, rank
		}
	}

	if best == nil {
		return nil, ErrNotFound
	}
	itemCopy := *best
	return &itemCopy, nil
}

func containsAll(words, query []string) bool {
	for _, q := range query {
		if !slices.Contains(words, q) {
			return false
		}
	}
	return true
}

func (s *InMemoryStore) CreateSkillInterest(ctx context.Context, item *SkillInterest) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.skills[item.SkillInterestID]; exists {
		return ErrDuplicate
	}
	itemCopy := *item
	s.skills[item.SkillInterestID] = &itemCopy
	return nil
}

func (s *InMemoryStore) FindOrCreateCompany(ctx context.Context, name string) (*Company, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return findOrCreateNamed(s.companies, name, func(c *Company) string { return c.Name }, func(n string, now time.Time) *Company {
		return &Company{CompanyID: uuid.New(), Name: n, ValidFrom: now, ValidTo: Infinity}
	}, func(c *Company) uuid.UUID { return c.CompanyID })
}

func (s *InMemoryStore) FindOrCreateJobRole(ctx context.Context, name string) (*JobRole, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return findOrCreateNamed(s.jobRoles, name, func(r *JobRole) string { return r.Name }, func(n string, now time.Time) *JobRole {
		return &JobRole{JobRoleID: uuid.New(), Name: n, ValidFrom: now, ValidTo: Infinity}
	}, func(r *JobRole) uuid.UUID { return r.JobRoleID })
}

func (s *InMemoryStore) FindOrCreateLocation(ctx context.Context, name string) (*Location, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return findOrCreateNamed(s.locations, name, func(l *Location) string { return l.Name }, func(n string, now time.Time) *Location {
		return &Location{LocationID: uuid.New(), Name: n, ValidFrom: now, ValidTo: Infinity}
	}, func(l *Location) uuid.UUID { return l.LocationID })
}

func findOrCreateNamed[T any](m map[uuid.UUID]*T, name string, nameOf func(*T) string, build func(string, time.Time) *T, idOf func(*T) uuid.UUID) (*T, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	for _, item := range m {
		if strings.EqualFold(nameOf(item), name) {
			itemCopy := *item
			return &itemCopy, nil
		}
	}

	item := build(name, time.Now().UTC())
	m[idOf(item)] = item
	itemCopy := *item
	return &itemCopy, nil
}

func (s *InMemoryStore) SeedVocabulary(ctx context.Context, kind models.VocabularyKind, name string, embedding []float32) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("name cannot be empty")
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()
	switch kind {
	case models.VocabularySkill, models.VocabularyInterest:
		for _, item := range s.skills {
			if strings.EqualFold(item.Name, name) && item.Category == string(kind) {
				if item.Embedding != nil || vec == nil {
					return false, nil
				}
				item.Embedding = vec
				return true, nil
			}
		}
		id := uuid.New()
		s.skills[id] = &SkillInterest{SkillInterestID: id, Name: name, Category: string(kind), Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		return true, nil
	case models.VocabularyJobRole:
		for _, item := range s.jobRoles {
			if strings.EqualFold(item.Name, name) {
				return fillEmbedding(&item.Embedding, vec), nil
			}
		}
		id := uuid.New()
		s.jobRoles[id] = &JobRole{JobRoleID: id, Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		return true, nil
	case models.VocabularyCompany:
		for _, item := range s.companies {
			if strings.EqualFold(item.Name, name) {
				return fillEmbedding(&item.Embedding, vec), nil
			}
		}
		id := uuid.New()
		s.companies[id] = &Company{CompanyID: id, Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		return true, nil
	case models.VocabularyLocation:
		for _, item := range s.locations {
			if strings.EqualFold(item.Name, name) {
				return fillEmbedding(&item.Embedding, vec), nil
			}
		}
		id := uuid.New()
		s.locations[id] = &Location{LocationID: id, Name: name, Embedding: vec, ValidFrom: now, ValidTo: Infinity}
		return true, nil
	}
	return false, fmt.Errorf("unknown vocabulary kind %q", kind)
}

func fillEmbedding(dst **pgvector.Vector, vec *pgvector.Vector) bool {
	if *dst != nil || vec == nil {
		return false
	}
	*dst = vec
	return true
}

func (s *InMemoryStore) UpsertUserSkill(ctx context.Context, link *UserSkill) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	linkCopy := *link
	s.userSkills[[2]uuid.UUID{link.UserID, link.SkillInterestID}] = &linkCopy
	return nil
}

func (s *InMemoryStore) UpsertUserInterest(ctx context.Context, link *UserInterest) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	linkCopy := *link
	s.userInterests[[2]uuid.UUID{link.UserID, link.SkillInterestID}] = &linkCopy
	return nil
}

func (s *InMemoryStore) UpsertUserJobRole(ctx context.Context, link *UserJobRole) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	linkCopy := *link
	s.userJobRoles[[2]uuid.UUID{link.UserID, link.JobRoleID}] = &linkCopy
	return nil
}

func (s *InMemoryStore) SetUserCompany(ctx context.Context, link *UserCompany) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, existing := range s.userCompanies {
		if key[0] == link.UserID && key[1] != link.CompanyID && existing.ValidTo.After(link.ValidFrom) {
			existing.ValidTo = link.ValidFrom
		}
	}
	linkCopy := *link
	s.userCompanies[[2]uuid.UUID{link.UserID, link.CompanyID}] = &linkCopy
	return nil
}

func (s *InMemoryStore) SetUserLocation(ctx context.Context, link *UserLocation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, existing := range s.userLocations {
		if key[0] == link.UserID && key[1] != link.LocationID && existing.ValidTo.After(link.ValidFrom) {
			existing.ValidTo = link.ValidFrom
		}
	}
	linkCopy := *link
	s.userLocations[[2]uuid.UUID{link.UserID, link.LocationID}] = &linkCopy
	return nil
}

// UserCompanies returns the company links of a user, used by tests
func (s *InMemoryStore) UserCompanies(userID uuid.UUID) []UserCompany {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []UserCompany
	for key, link := range s.userCompanies {
		if key[0] == userID {
			out = append(out, *link)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out
}

func (s *InMemoryStore) CreateConference(ctx context.Context, conference *Conference) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.conferences[conference.ConferenceID]; exists {
		return ErrDuplicate
	}
	conferenceCopy := *conference
	s.conferences[conference.ConferenceID] = &conferenceCopy
	return nil
}

func (s *InMemoryStore) GetConference(ctx context.Context, conferenceID uuid.UUID) (*Conference, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	conference, exists := s.conferences[conferenceID]
	if !exists {
		return nil, ErrNotFound
	}
	conferenceCopy := *conference
	return &conferenceCopy, nil
}

func (s *InMemoryStore) CreateEvent(ctx context.Context, event *Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.events[event.EventID]; exists {
		return ErrDuplicate
	}
	eventCopy := *event
	s.events[event.EventID] = &eventCopy
	return nil
}

func (s *InMemoryStore) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	event, exists := s.events[eventID]
	if !exists {
		return nil, ErrNotFound
	}
	eventCopy := *event
	return &eventCopy, nil
}

func (s *InMemoryStore) ListEvents(ctx context.Context, conferenceID uuid.UUID) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var events []Event
	for _, event := range s.events {
		if event.ConferenceID == conferenceID {
			events = append(events, *event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].Title < events[j].Title
	})
	return events, nil
}

func (s *InMemoryStore) CreateRegistration(ctx context.Context, reg *Registration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.registrations[reg.RegID]; exists {
		return ErrDuplicate
	}
	regCopy := *reg
	s.registrations[reg.RegID] = &regCopy
	return nil
}

func (s *InMemoryStore) GetRegistration(ctx context.Context, regID string) (*Registration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	reg, exists := s.registrations[regID]
	if !exists {
		return nil, ErrNotFound
	}
	regCopy := *reg
	return &regCopy, nil
}

func (s *InMemoryStore) ClaimRegistration(ctx context.Context, regID string, userID uuid.UUID, at time.Time) (*Registration, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	reg, exists := s.registrations[regID]
	if !exists {
		return nil, ErrNotFound
	}
	if err := claimable(reg, userID); err != nil {
		return nil, err
	}

	if reg.Status != string(models.RegistrationClaimed) {
		id := userID
		claimedAt := at
		reg.UserID = &id
		reg.ClaimedByUserAt = &claimedAt
		reg.Status = string(models.RegistrationClaimed)
		if user, ok := s.users[userID]; ok {
			code := regID
			user.RegID = &code
		}
	}

	regCopy := *reg
	return &regCopy, nil
}

func (s *InMemoryStore) RecordAttendance(ctx context.Context, attendance *EventAttendance) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	attendanceCopy := *attendance
	s.attendance[[2]uuid.UUID{attendance.UserID, attendance.EventID}] = &attendanceCopy
	return nil
}

func (s *InMemoryStore) RecordFeedback(ctx context.Context, feedback *EventFeedback) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	feedbackCopy := *feedback
	s.feedback = append(s.feedback, &feedbackCopy)
	return nil
}

func (s *InMemoryStore) SaveRecommendations(ctx context.Context, userID uuid.UUID, recs []Recommendation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.snapshots[userID] = slices.Clone(recs)
	return nil
}

func (s *InMemoryStore) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	recs := slices.Clone(s.snapshots[userID])
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}
