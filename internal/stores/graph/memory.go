package graph

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/nexxt/connect/pkg/models"
)

type set map[string]bool

func (s set) add(v string) {
	if v != "" {
		s[v] = true
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

type memUser struct {
	User
	skills        set
	expertise     set
	interests     set
	industries    set
	universities  set
	pastCompanies set
	conferences   set
	attends       set
	presents      set
	exhibits      set
	organizes     set
	feedback      map[string]bool
	attendance    map[string]string
	jobRole       string
	company       string
	location      string
	years         *int
}

func newMemUser(u User) *memUser {
	return &memUser{
		User:          u,
		skills:        set{},
		expertise:     set{},
		interests:     set{},
		industries:    set{},
		universities:  set{},
		pastCompanies: set{},
		conferences:   set{},
		attends:       set{},
		presents:      set{},
		exhibits:      set{},
		organizes:     set{},
		feedback:      map[string]bool{},
		attendance:    map[string]string{},
	}
}

// neighbours returns the projected neighbourhood of the user, restricted to relTypes
func (u *memUser) neighbours(relTypes []string) set {
	n := set{}
	for _, rel := range relTypes {
		switch rel {
		case "WORKS_AT":
			if u.company != "" {
				n.add("Company:" + u.company)
			}
		case "WORKED_AT":
			for c := range u.pastCompanies {
				n.add("Company:" + c)
			}
		case "LIVES_IN":
			if u.location != "" {
				n.add("Location:" + u.location)
			}
		case "STUDIED_AT":
			for v := range u.universities {
				n.add("University:" + v)
			}
		case "REGISTERED_FOR":
			for v := range u.conferences {
				n.add("Conference:" + v)
			}
		case "ATTENDS":
			for v := range u.attends {
				n.add("Event:" + v)
			}
		case "PRESENTS_AT":
			for v := range u.presents {
				n.add("Event:" + v)
			}
		case "EXHIBITS_AT":
			for v := range u.exhibits {
				n.add("Event:" + v)
			}
		case "ORGANIZES":
			for v := range u.organizes {
				n.add("Organized:" + v)
			}
		case "HAS_INTEREST":
			for v := range u.interests {
				n.add("Interest:" + v)
			}
		case "DESIRES_INDUSTRY":
			for v := range u.industries {
				n.add("Industry:" + v)
			}
		case "HAS_SKILL":
			for v := range u.skills {
				n.add("Skill:" + v)
			}
		}
	}
	return n
}

// InMemoryStore computes Jaccard node similarity in process. It is used for
// tests and for running without Neo4j.
type InMemoryStore struct {
	users       map[string]*memUser
	conferences map[string]Conference
	events      map[string]Event
	similar     map[string]map[[2]string]float64
	mutex       sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory graph
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:       make(map[string]*memUser),
		conferences: make(map[string]Conference),
		events:      make(map[string]Event),
		similar:     make(map[string]map[[2]string]float64),
	}
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close(ctx context.Context) error { return nil }

func (s *InMemoryStore) UpsertUser(ctx context.Context, user User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existing, ok := s.users[user.UserID]; ok {
		regID := existing.RegID
		if user.RegID != "" {
			regID = user.RegID
		}
		existing.User = user
		existing.RegID = regID
		return nil
	}
	s.users[user.UserID] = newMemUser(user)
	return nil
}

func (s *InMemoryStore) DeleteUser(ctx context.Context, userID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, userID)
	for _, pairs := range s.similar {
		for key := range pairs {
			if key[0] == userID || key[1] == userID {
				delete(pairs, key)
			}
		}
	}
	return nil
}

func (s *InMemoryStore) MergeProfile(ctx context.Context, p Profile) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	u, ok := s.users[p.UserID]
	if !ok {
		return ErrUserNotFound
	}
	u.merge(p)
	return nil
}

func (s *InMemoryStore) ApplyTranscript(ctx context.Context, p Profile) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	u, ok := s.users[p.UserID]
	if !ok {
		return false, nil
	}
	u.skills, u.expertise, u.interests = set{}, set{}, set{}
	u.merge(p)
	return true, nil
}

func (u *memUser) merge(p Profile) {
	for _, l := range p.Skills {
		u.skills.add(l.Name)
	}
	for _, l := range p.Expertise {
		u.expertise.add(l.Name)
	}
	for _, l := range p.Interests {
		u.interests.add(l.Name)
	}
	if p.JobRole != "" {
		u.jobRole = p.JobRole
	}
	if p.Company != nil && p.Company.Name != u.company {
		if u.company != "" {
			u.pastCompanies.add(u.company)
		}
		u.company = p.Company.Name
		delete(u.pastCompanies, u.company)
	}
	if p.Location != "" {
		u.location = p.Location
	}
	for _, v := range p.Universities {
		u.universities.add(v)
	}
	for _, v := range p.DesiredIndustries {
		u.industries.add(v)
	}
	if p.YearsOfExperience != nil {
		years := *p.YearsOfExperience
		u.years = &years
	}
}

func (s *InMemoryStore) UpsertConference(ctx context.Context, conference Conference) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.conferences[conference.ConferenceID] = conference
	if o, ok := s.users[conference.OrganizerID]; ok {
		o.organizes.add(conference.ConferenceID)
	}
	return nil
}

func (s *InMemoryStore) UpsertEvent(ctx context.Context, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	topics := set{}
	if existing, ok := s.events[event.EventID]; ok {
		for _, t := range existing.Topics {
			topics.add(t)
		}
	}
	for _, t := range event.Topics {
		topics.add(t)
	}
	event.Topics = topics.sorted()
	s.events[event.EventID] = event

	if o, ok := s.users[event.OrganizerID]; ok {
		o.organizes.add(event.EventID)
	}
	for _, id := range event.PresenterIDs {
		if u, ok := s.users[id]; ok {
			u.presents.add(event.EventID)
		}
	}
	if event.EventType == string(models.EventExhibition) {
		for _, id := range event.ExhibitorIDs {
			if u, ok := s.users[id]; ok {
				u.exhibits.add(event.EventID)
			}
		}
	}
	return nil
}

func (s *InMemoryStore) RegisterForConference(ctx context.Context, userID, conferenceID, regID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if u, ok := s.users[userID]; ok {
		u.conferences.add(conferenceID)
	}
	return nil
}

func (s *InMemoryStore) RecordAttendance(ctx context.Context, userID, eventID, status string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if u, ok := s.users[userID]; ok {
		if _, exists := s.events[eventID]; exists {
			u.attends.add(eventID)
			u.attendance[eventID] = status
		}
	}
	return nil
}

func (s *InMemoryStore) RecordFeedback(ctx context.Context, userID, eventID string, interested bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if u, ok := s.users[userID]; ok {
		if _, exists := s.events[eventID]; exists {
			u.feedback[eventID] = interested
		}
	}
	return nil
}

func (s *InMemoryStore) Recommend(ctx context.Context, userID string, category models.RecommendationCategory, limit int) ([]models.Candidate, error) {
	p, ok := ProjectionFor(category)
	if !ok {
		return nil, fmt.Errorf("unsupported recommendation category %q", category)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	me, ok := s.users[userID]
	if !ok {
		return []models.Candidate{}, nil
	}

	scores := map[string]float64{}
	for key, score := range s.similar[p.WriteType] {
		var other string
		switch userID {
		case key[0]:
			other = key[1]
		case key[1]:
			other = key[0]
		default:
			continue
		}
		if other == userID || score <= 0 {
			continue
		}
		if _, exists := s.users[other]; !exists {
			continue
		}
		scores[other] = max(scores[other], score)
	}

	candidates := make([]models.Candidate, 0, len(scores))
	for otherID, score := range scores {
		o := s.users[otherID]
		c := models.Candidate{
			UserID:          otherID,
			RecommendedUser: o.FullName,
			SimilarityScore: score,
			Category:        category.Label(),
			Commonalities:   commonalities(category, me, o),
		}
		if o.jobRole != "" {
			role := o.jobRole
			c.Role = &role
		}
		if o.years != nil {
			years := int64(*o.years)
			c.YearsExperience = &years
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SimilarityScore != candidates[j].SimilarityScore {
			return candidates[i].SimilarityScore > candidates[j].SimilarityScore
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func commonalities(category models.RecommendationCategory, me, other *memUser) map[string][]string {
	shared := func(a, b set) []string {
		out := []string{}
		for v := range a {
			if b[v] {
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return out
	}

	switch category {
	case models.RecommendDemographics:
		mine, theirs := set{}, set{}
		mine.add(me.company)
		theirs.add(other.company)
		for c := range me.pastCompanies {
			mine.add(c)
		}
		for c := range other.pastCompanies {
			theirs.add(c)
		}
		locations := []string{}
		if me.location != "" && me.location == other.location {
			locations = append(locations, me.location)
		}
		return map[string][]string{
			models.SharedCompanies:    shared(mine, theirs),
			models.SharedLocations:    locations,
			models.SharedUniversities: shared(me.universities, other.universities),
		}
	case models.RecommendInterests:
		return map[string][]string{models.CommonInterests: shared(me.interests, other.interests)}
	case models.RecommendSkills:
		return map[string][]string{models.CommonSkills: shared(me.skills, other.skills)}
	}
	return map[string][]string{}
}

func (s *InMemoryStore) RecommendEvents(ctx context.Context, userID string, limit int) ([]models.EventRecommendation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return []models.EventRecommendation{}, nil
	}

	wanted := set{}
	for v := range u.interests {
		wanted.add(strings.ToLower(v))
	}
	for v := range u.industries {
		wanted.add(strings.ToLower(v))
	}

	out := []models.EventRecommendation{}
	for id, e := range s.events {
		if u.attends[id] || len(e.Topics) == 0 {
			continue
		}
		if interested, gave := u.feedback[id]; gave && !interested {
			continue
		}

		var matched []string
		for _, t := range e.Topics {
			if wanted[strings.ToLower(t)] {
				matched = append(matched, t)
			}
		}
		if len(matched) == 0 {
			continue
		}

		rec := models.EventRecommendation{
			EventID:       id,
			Title:         e.Title,
			EventType:     e.EventType,
			MatchedTopics: matched,
			Score:         float64(len(matched)),
		}
		if _, exists := s.conferences[e.ConferenceID]; exists {
			rec.ConferenceID = e.ConferenceID
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].EventID < out[j].EventID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RefreshSimilarities replaces every SIMILAR_* relationship with fresh Jaccard scores
func (s *InMemoryStore) RefreshSimilarities(ctx context.Context, opts SimilarityOptions) ([]ProjectionResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]ProjectionResult, 0, len(Projections))
	for _, p := range Projections {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := ProjectionResult{Name: p.Name, WriteType: p.WriteType}
		pairs := map[[2]string]float64{}
		s.similar[p.WriteType] = pairs

		neighbours := make(map[string]set, len(ids))
		for _, id := range ids {
			if n := s.users[id].neighbours(p.RelationshipTypes); len(n) > 0 {
				neighbours[id] = n
			}
		}
		if len(neighbours) == 0 {
			result.Status = StatusSkipped
			results = append(results, result)
			continue
		}

		for _, id := range ids {
			mine, ok := neighbours[id]
			if !ok {
				continue
			}
			result.NodesCompared++

			type scored struct {
				other string
				score float64
			}
			var top []scored
			for _, other := range ids {
				theirs, ok := neighbours[other]
				if !ok || other == id {
					continue
				}
				score := jaccard(mine, theirs)
				if score <= 0 || score < opts.Cutoff {
					continue
				}
				top = append(top, scored{other, score})
			}
			sort.SliceStable(top, func(i, j int) bool { return top[i].score > top[j].score })
			if opts.TopK > 0 && len(top) > opts.TopK {
				top = top[:opts.TopK]
			}
			for _, t := range top {
				pairs[[2]string{id, t.other}] = t.score
				result.RelationshipsWritten++
			}
		}
		result.Status = StatusWritten
		results = append(results, result)
	}
	return results, nil
}

func jaccard(a, b set) float64 {
	var inter int
	for v := range a {
		if b[v] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Users lists the user ids in the graph, used by tests
func (s *InMemoryStore) Users() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return slices.Sorted(slices.Values(ids))
}
