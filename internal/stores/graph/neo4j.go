package graph

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/nexxt/connect/pkg/models"
)

// Neo4jStore is the Neo4j + Graph Data Science implementation of Store
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to Neo4j and verifies connectivity
func NewNeo4jStore(ctx context.Context, uri, user, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type statement struct {
	query  string
	params map[string]any
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// write runs statements in a single write transaction
func (s *Neo4jStore) write(ctx context.Context, stmts ...statement) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range stmts {
			res, err := tx.Run(ctx, st.query, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// read runs a query in a read transaction and collects every record
func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

// auto runs a query outside an explicit transaction, as GDS procedures require
func (s *Neo4jStore) auto(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func (s *Neo4jStore) UpsertUser(ctx context.Context, user User) error {
	err := s.write(ctx, statement{queryUpsertUser, map[string]any{
		"userID":   user.UserID,
		"fullName": user.FullName,
		"email":    user.Email,
		"regID":    user.RegID,
		"category": user.RegistrationCategory,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert graph user: %w", err)
	}
	return nil
}

func (s *Neo4jStore) DeleteUser(ctx context.Context, userID string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, queryDeleteUser, map[string]any{"userID": userID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return intValue(record, "deleted"), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete graph user: %w", err)
	}
	if deleted.(int64) == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Neo4jStore) userExists(ctx context.Context, userID string) (bool, error) {
	records, err := s.read(ctx, queryUserExists, map[string]any{"userID": userID})
	if err != nil {
		return false, fmt.Errorf("failed to look up graph user: %w", err)
	}
	return len(records) > 0 && intValue(records[0], "found") > 0, nil
}

// MergeProfile applies every fact of the profile in one transaction
func (s *Neo4jStore) MergeProfile(ctx context.Context, profile Profile) error {
	exists, err := s.userExists(ctx, profile.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := s.write(ctx, profileStatements(profile)...); err != nil {
		return fmt.Errorf("failed to merge profile: %w", err)
	}
	return nil
}

// ApplyTranscript replaces the user's skills, expertise and interests with
// the extracted ones and merges the remaining facts. It reports false when
// the user is not in the graph.
func (s *Neo4jStore) ApplyTranscript(ctx context.Context, profile Profile) (bool, error) {
	exists, err := s.userExists(ctx, profile.UserID)
	if err != nil || !exists {
		return false, err
	}

	stmts := append([]statement{{queryClearExtracted, map[string]any{"userID": profile.UserID}}}, profileStatements(profile)...)
	if err := s.write(ctx, stmts...); err != nil {
		return false, fmt.Errorf("failed to apply transcript: %w", err)
	}
	return true, nil
}

func profileStatements(p Profile) []statement {
	var stmts []statement
	now := time.Now().UTC()
	link := func(query string, l Link) statement {
		if l.ValidFrom.IsZero() {
			l.ValidFrom = now
		}
		if l.ValidTo.IsZero() {
			l.ValidTo = OpenEnded
		}
		return statement{query, map[string]any{
			"userID":    p.UserID,
			"name":      l.Name,
			"validFrom": l.ValidFrom,
			"validTo":   l.ValidTo,
		}}
	}

	for _, skill := range p.Skills {
		stmts = append(stmts, link(queryMergeSkill, skill))
	}
	for _, expertise := range p.Expertise {
		stmts = append(stmts, link(queryMergeExpertise, expertise))
	}
	for _, interest := range p.Interests {
		stmts = append(stmts, link(queryMergeInterest, interest))
	}
	if p.JobRole != "" {
		stmts = append(stmts, statement{querySetJobRole, map[string]any{"userID": p.UserID, "title": p.JobRole}})
	}
	if p.Company != nil {
		stmts = append(stmts, link(querySetCompany, *p.Company))
	}
	if p.Location != "" {
		stmts = append(stmts, statement{querySetLocation, map[string]any{"userID": p.UserID, "name": p.Location}})
	}
	for _, university := range p.Universities {
		stmts = append(stmts, statement{queryMergeUniversity, map[string]any{"userID": p.UserID, "name": university}})
	}
	for _, industry := range p.DesiredIndustries {
		stmts = append(stmts, statement{queryMergeIndustry, map[string]any{"userID": p.UserID, "name": industry}})
	}
	if p.YearsOfExperience != nil {
		stmts = append(stmts, statement{querySetYears, map[string]any{"userID": p.UserID, "years": int64(*p.YearsOfExperience)}})
	}
	return stmts
}

func (s *Neo4jStore) UpsertConference(ctx context.Context, conference Conference) error {
	err := s.write(ctx, statement{queryUpsertConference, map[string]any{
		"conferenceID": conference.ConferenceID,
		"name":         conference.Name,
		"location":     conference.Location,
		"organizerID":  conference.OrganizerID,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert graph conference: %w", err)
	}
	return nil
}

func (s *Neo4jStore) UpsertEvent(ctx context.Context, event Event) error {
	topics := event.Topics
	if topics == nil {
		topics = []string{}
	}

	stmts := []statement{{queryUpsertEvent, map[string]any{
		"eventID":      event.EventID,
		"conferenceID": event.ConferenceID,
		"title":        event.Title,
		"eventType":    event.EventType,
		"topics":       topics,
		"organizerID":  event.OrganizerID,
	}}}
	for _, id := range event.PresenterIDs {
		stmts = append(stmts, statement{queryLinkPresenter, map[string]any{"userID": id, "eventID": event.EventID}})
	}
	for _, id := range event.ExhibitorIDs {
		stmts = append(stmts, statement{queryLinkExhibitor, map[string]any{"userID": id, "eventID": event.EventID}})
	}

	if err := s.write(ctx, stmts...); err != nil {
		return fmt.Errorf("failed to upsert graph event: %w", err)
	}
	return nil
}

func (s *Neo4jStore) RegisterForConference(ctx context.Context, userID, conferenceID, regID string) error {
	return s.write(ctx, statement{queryRegister, map[string]any{"userID": userID, "conferenceID": conferenceID, "regID": regID}})
}

func (s *Neo4jStore) RecordAttendance(ctx context.Context, userID, eventID, status string) error {
	return s.write(ctx, statement{queryAttend, map[string]any{"userID": userID, "eventID": eventID, "status": status}})
}

func (s *Neo4jStore) RecordFeedback(ctx context.Context, userID, eventID string, interested bool) error {
	return s.write(ctx, statement{queryFeedback, map[string]any{"userID": userID, "eventID": eventID, "interested": interested}})
}

// Recommend reads the similarity relationships written for category
func (s *Neo4jStore) Recommend(ctx context.Context, userID string, category models.RecommendationCategory, limit int) ([]models.Candidate, error) {
	var query string
	var keys []string
	switch category {
	case models.RecommendDemographics:
		query = queryRecommendDemographics
		keys = []string{models.SharedCompanies, models.SharedLocations, models.SharedUniversities}
	case models.RecommendInterests:
		query = queryRecommendInterests
		keys = []string{models.CommonInterests}
	case models.RecommendSkills:
		query = queryRecommendSkills
		keys = []string{models.CommonSkills}
	default:
		return nil, fmt.Errorf("unsupported recommendation category %q", category)
	}

	records, err := s.read(ctx, query, map[string]any{"userID": userID, "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s recommendations: %w", category, err)
	}

	candidates := make([]models.Candidate, 0, len(records))
	for _, record := range records {
		c := models.Candidate{
			UserID:          stringValue(record, "UserID"),
			RecommendedUser: stringValue(record, "RecommendedUser"),
			SimilarityScore: floatValue(record, "SimilarityScore"),
			Category:        category.Label(),
			Commonalities:   make(map[string][]string, len(keys)),
		}
		if role := stringValue(record, "Role"); role != "" {
			c.Role = &role
		}
		if v, ok := record.Get("YearsExperience"); ok && v != nil {
			if years, ok := v.(int64); ok {
				c.YearsExperience = &years
			}
		}
		for _, key := range keys {
			c.Commonalities[key] = stringsValue(record, key)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (s *Neo4jStore) RecommendEvents(ctx context.Context, userID string, limit int) ([]models.EventRecommendation, error) {
	records, err := s.read(ctx, queryRecommendEvents, map[string]any{"userID": userID, "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to query event recommendations: %w", err)
	}

	out := make([]models.EventRecommendation, 0, len(records))
	for _, record := range records {
		out = append(out, models.EventRecommendation{
			EventID:       stringValue(record, "EventID"),
			ConferenceID:  stringValue(record, "ConferenceID"),
			Title:         stringValue(record, "Title"),
			EventType:     stringValue(record, "EventType"),
			MatchedTopics: stringsValue(record, "MatchedTopics"),
			Score:         floatValue(record, "Score"),
		})
	}
	return out, nil
}

// RefreshSimilarities recomputes every projection. A failed similarity write
// is reported in its result and does not stop the others; failing to build a
// projection aborts the run.
func (s *Neo4jStore) RefreshSimilarities(ctx context.Context, opts SimilarityOptions) ([]ProjectionResult, error) {
	labels, err := s.names(ctx, queryLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	relTypes, err := s.names(ctx, queryRelationshipTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationship types: %w", err)
	}

	results := make([]ProjectionResult, 0, len(Projections))
	for _, p := range Projections {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		result, err := s.refreshProjection(ctx, p, opts, labels, relTypes)
		if err != nil {
			return results, fmt.Errorf("projection %s: %w", p.Name, err)
		}
		log.Printf("[GRAPH]: projection %s %s (compared=%d written=%d) in %s",
			p.Name, result.Status, result.NodesCompared, result.RelationshipsWritten, time.Since(start))
		results = append(results, result)
	}
	return results, nil
}

func (s *Neo4jStore) refreshProjection(ctx context.Context, p Projection, opts SimilarityOptions, labels, relTypes []string) (ProjectionResult, error) {
	result := ProjectionResult{Name: p.Name, WriteType: p.WriteType}

	if err := s.dropProjection(ctx, p.Name); err != nil {
		return result, fmt.Errorf("drop: %w", err)
	}
	if _, err := s.auto(ctx, fmt.Sprintf(queryDeleteSimilarities, p.WriteType), nil); err != nil {
		return result, fmt.Errorf("delete stale similarities: %w", err)
	}

	nodeLabels := intersect(p.NodeLabels, labels)
	relationships := intersect(p.RelationshipTypes, relTypes)
	if !slices.Contains(nodeLabels, "User") || len(relationships) == 0 {
		result.Status = StatusSkipped
		return result, nil
	}

	relProjection := make(map[string]any, len(relationships))
	for _, rel := range relationships {
		relProjection[rel] = map[string]any{"orientation": "UNDIRECTED"}
	}
	if _, err := s.auto(ctx, queryGraphProject, map[string]any{
		"name":          p.Name,
		"labels":        nodeLabels,
		"relationships": relProjection,
	}); err != nil {
		return result, fmt.Errorf("project: %w", err)
	}
	defer func() {
		if err := s.dropProjection(context.WithoutCancel(ctx), p.Name); err != nil {
			log.Printf("[GRAPH]: failed to drop projection %s: %v", p.Name, err)
		}
	}()

	records, err := s.auto(ctx, queryNodeSimilarityWrite, map[string]any{
		"name":      p.Name,
		"writeType": p.WriteType,
		"topK":      int64(opts.TopK),
		"cutoff":    opts.Cutoff,
	})
	if err != nil {
		log.Printf("[GRAPH]: similarity write for %s failed: %v", p.Name, err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, nil
	}
	if len(records) > 0 {
		result.NodesCompared = intValue(records[0], "nodesCompared")
		result.RelationshipsWritten = intValue(records[0], "relationshipsWritten")
	}
	result.Status = StatusWritten
	return result, nil
}

func (s *Neo4jStore) dropProjection(ctx context.Context, name string) error {
	records, err := s.auto(ctx, queryGraphExists, map[string]any{"name": name})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if exists, _ := records[0].Get("exists"); exists != true {
		return nil
	}
	_, err = s.auto(ctx, queryGraphDrop, map[string]any{"name": name})
	return err
}

func (s *Neo4jStore) names(ctx context.Context, query string) ([]string, error) {
	records, err := s.read(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return stringsValue(records[0], "values"), nil
}

func intersect(want, have []string) []string {
	var out []string
	for _, w := range want {
		if slices.Contains(have, w) {
			out = append(out, w)
		}
	}
	return out
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intValue(record *neo4j.Record, key string) int64 {
	v, _ := record.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func floatValue(record *neo4j.Record, key string) float64 {
	v, _ := record.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func stringsValue(record *neo4j.Record, key string) []string {
	v, _ := record.Get(key)
	items, _ := v.([]any)

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}
