package events

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
)

var (
	ErrInvalidEvent      = errors.New("invalid event")
	ErrInvalidAttendance = errors.New("invalid attendance status")
)

// MaxRegIDLength bounds organizer supplied registration codes
const MaxRegIDLength = 100

// EventsService handles conferences, events and registrations
type EventsService struct {
	deps *deps.Deps
	now  func() time.Time
}

var eventsService *EventsService

// Init creates the events service over the shared dependencies
func Init(d *deps.Deps) {
	eventsService = &EventsService{deps: d, now: func() time.Time { return time.Now().UTC() }}
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func toConferenceRead(c *relational.Conference) *models.ConferenceRead {
	return &models.ConferenceRead{
		ConferenceID: c.ConferenceID,
		ConferenceCreate: models.ConferenceCreate{
			Name:         c.Name,
			Description:  c.Description,
			StartDate:    c.StartDate,
			EndDate:      c.EndDate,
			LocationName: c.LocationName,
			OrganizerID:  c.OrganizerID,
			LogoURL:      c.LogoURL,
			WebsiteURL:   c.WebsiteURL,
			VenueDetails: c.VenueDetails,
		},
	}
}

func toEventRead(e *relational.Event) models.EventRead {
	return models.EventRead{
		EventID:      e.EventID,
		ConferenceID: e.ConferenceID,
		EventCreate: models.EventCreate{
			Title:        e.Title,
			Description:  e.Description,
			EventType:    models.EventType(e.EventType),
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
			LocationName: e.LocationName,
			VenueDetails: e.VenueDetails,
			Topics:       e.Topics,
			IndustryTags: e.IndustryTags,
		},
	}
}

// requireUser wraps relational.ErrNotFound with the role of the missing user
func (s *EventsService) requireUser(ctx context.Context, role string, id uuid.UUID) (*relational.User, error) {
	user, err := s.deps.Relational.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s user %s", relational.ErrNotFound, role, id)
		}
		return nil, err
	}
	return user, nil
}

// CreateConference stores a conference and mirrors it into the graph
func (s *EventsService) CreateConference(ctx context.Context, req *models.ConferenceCreate) (*models.ConferenceRead, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidEvent)
	}
	if req.OrganizerID != nil {
		if _, err := s.requireUser(ctx, "organizer", *req.OrganizerID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	conference := &relational.Conference{
		ConferenceID: uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		LocationName: strings.TrimSpace(req.LocationName),
		VenueDetails: req.VenueDetails,
		LogoURL:      req.LogoURL,
		WebsiteURL:   req.WebsiteURL,
		OrganizerID:  req.OrganizerID,
		ValidFrom:    now,
		ValidTo:      relational.Infinity,
	}
	if conference.LocationName != "" {
		location, _, err := s.deps.Normalizer.ResolveLocation(ctx, conference.LocationName)
		if err != nil {
			return nil, err
		}
		conference.LocationID = &location.LocationID
		conference.LocationName = location.Name
	}

	if err := s.deps.Relational.CreateConference(ctx, conference); err != nil {
		return nil, err
	}
	if err := s.deps.Graph.UpsertConference(ctx, graph.Conference{
		ConferenceID: conference.ConferenceID.String(),
		Name:         conference.Name,
		Location:     conference.LocationName,
		OrganizerID:  optionalID(conference.OrganizerID),
	}); err != nil {
		return nil, fmt.Errorf("failed to create conference in graph: %w", err)
	}

	log.Printf("[EVENTS]: Created conference %s (%s)", conference.ConferenceID, conference.Name)
	return toConferenceRead(conference), nil
}

// GetConference returns a stored conference
func (s *EventsService) GetConference(ctx context.Context, conferenceID uuid.UUID) (*models.ConferenceRead, error) {
	conference, err := s.deps.Relational.GetConference(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	return toConferenceRead(conference), nil
}

// CreateEvent stores a component event of a conference. Exhibitors are only
// linked to exhibitions; others are reported back as warnings.
func (s *EventsService) CreateEvent(ctx context.Context, conferenceID uuid.UUID, req *models.EventCreate) (*models.EventCreateResponse, error) {
	if !req.EventType.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, req.EventType)
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time is before start_time", ErrInvalidEvent)
	}

	conference, err := s.deps.Relational.GetConference(ctx, conferenceID)
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return nil, fmt.Errorf("%w: conference %s", relational.ErrNotFound, conferenceID)
		}
		return nil, err
	}

	for _, id := range req.PresenterUserIDs {
		if _, err := s.requireUser(ctx, "presenter", id); err != nil {
			return nil, err
		}
	}
	for _, id := range req.ExhibitorUserIDs {
		if _, err := s.requireUser(ctx, "exhibitor", id); err != nil {
			return nil, err
		}
	}

	now := s.now()
	event := &relational.Event{
		EventID:      uuid.New(),
		ConferenceID: conference.ConferenceID,
		Title:        req.Title,
		Description:  req.Description,
		EventType:    string(req.EventType),
		VenueDetails: req.VenueDetails,
		LocationName: strings.TrimSpace(req.LocationName),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		OrganizerID:  conference.OrganizerID,
		Topics:       req.Topics,
		IndustryTags: req.IndustryTags,
		ValidFrom:    now,
		ValidTo:      relational.Infinity,
	}
	if event.LocationName == "" {
		event.LocationName = conference.LocationName
		event.LocationID = conference.LocationID
	} else {
		location, _, err := s.deps.Normalizer.ResolveLocation(ctx, event.LocationName)
		if err != nil {
			return nil, err
		}
		event.LocationID = &location.LocationID
		event.LocationName = location.Name
	}

	if err := s.deps.Relational.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	resp := &models.EventCreateResponse{EventRead: toEventRead(event)}
	resp.PresenterUserIDs = req.PresenterUserIDs

	node := graph.Event{
		EventID:      event.EventID.String(),
		ConferenceID: conference.ConferenceID.String(),
		Title:        event.Title,
		EventType:    event.EventType,
		Location:     event.LocationName,
		Topics:       append(slices.Clone(req.Topics), req.IndustryTags...),
		OrganizerID:  optionalID(event.OrganizerID),
	}
	for _, id := range req.PresenterUserIDs {
		node.PresenterIDs = append(node.PresenterIDs, id.String())
	}
	if req.EventType == models.EventExhibition {
		for _, id := range req.ExhibitorUserIDs {
			node.ExhibitorIDs = append(node.ExhibitorIDs, id.String())
		}
		resp.ExhibitorUserIDs = req.ExhibitorUserIDs
	} else if len(req.ExhibitorUserIDs) > 0 {
		warning := fmt.Sprintf("event type %q is not an exhibition, %d exhibitor(s) were not linked", req.EventType, len(req.ExhibitorUserIDs))
		log.Printf("[EVENTS]: Warning: %s for event %s", warning, event.EventID)
		resp.Warnings = append(resp.Warnings, warning)
	}

	if err := s.deps.Graph.UpsertEvent(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create event in graph: %w", err)
	}

	log.Printf("[EVENTS]: Created %s event %s in conference %s", event.EventType, event.EventID, conference.ConferenceID)
	return resp, nil
}

// ListEvents returns the events of a conference ordered by start time
func (s *EventsService) ListEvents(ctx context.Context, conferenceID uuid.UUID) ([]models.EventRead, error) {
	if _, err := s.deps.Relational.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}

	stored, err := s.deps.Relational.ListEvents(ctx, conferenceID)
	if err != nil {
		return nil, err
	}

	out := make([]models.EventRead, len(stored))
	for i := range stored {
		out[i] = toEventRead(&stored[i])
	}
	return out, nil
}

// Calendar renders a conference and its events as an iCalendar document
func (s *EventsService) Calendar(ctx context.Context, conferenceID uuid.UUID) (string, error) {
	conference, err := s.deps.Relational.GetConference(ctx, conferenceID)
	if err != nil {
		return "", err
	}
	stored, err := s.deps.Relational.ListEvents(ctx, conferenceID)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//connect//conference calendar//EN")
	cal.SetName(conference.Name)
	if conference.Description != "" {
		cal.SetDescription(conference.Description)
	}

	stamp := s.now()
	for _, e := range stored {
		event := cal.AddEvent(e.EventID.String() + "@connect")
		event.SetDtStampTime(stamp)
		event.SetStartAt(e.StartTime)
		event.SetEndAt(e.EndTime)
		event.SetSummary(e.Title)
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
		if location := strings.TrimSpace(strings.Join([]string{e.LocationName, e.VenueDetails}, " ")); location != "" {
			event.SetLocation(location)
		}
		if tags := append(slices.Clone(e.Topics), e.IndustryTags...); len(tags) > 0 {
			event.SetProperty(ics.ComponentPropertyCategories, strings.Join(tags, ","))
		}
	}

	return cal.Serialize(), nil
}

// UploadRegistrations pre-registers one code per line of r for a conference.
// A first line reading "reg_id" is treated as a header and only the first
// comma separated column is used.
func (s *EventsService) UploadRegistrations(ctx context.Context, conferenceID uuid.UUID, fileName string, r io.Reader) (*models.BulkRegistrationUploadResponse, error) {
	if _, err := s.deps.Relational.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}

	resp := &models.BulkRegistrationUploadResponse{
		ConferenceID:  conferenceID,
		FileName:      fileName,
		FailedEntries: []string{},
	}

	now := s.now()
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxUploadBytes)
	for first := true; scanner.Scan(); first = false {
		regID, _, _ := strings.Cut(scanner.Text(), ",")
		regID = strings.Trim(strings.TrimSpace(regID), `"`)
		if regID == "" || (first && strings.EqualFold(regID, "reg_id")) {
			continue
		}
		resp.TotalIDsInFile++

		if len(regID) > MaxRegIDLength {
			resp.FailedEntries = append(resp.FailedEntries, regID[:MaxRegIDLength]+"...")
			continue
		}
		if seen[regID] {
			resp.SkippedDuplicates++
			continue
		}
		seen[regID] = true

		err := s.deps.Relational.CreateRegistration(ctx, &relational.Registration{
			RegID:                   regID,
			ConferenceID:            conferenceID,
			RegisteredByOrganizerAt: now,
			Status:                  string(models.RegistrationPreRegistered),
			ValidFrom:               now,
			ValidTo:                 relational.Infinity,
		})
		switch {
		case err == nil:
			resp.SuccessfullyRegistered++
		case errors.Is(err, relational.ErrDuplicate):
			resp.SkippedDuplicates++
		default:
			log.Printf("[EVENTS]: Failed to register %s for conference %s: %v", regID, conferenceID, err)
			resp.FailedEntries = append(resp.FailedEntries, regID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registration file: %w", err)
	}

	resp.Message = fmt.Sprintf("Processed %d registration ids: %d registered, %d duplicates skipped, %d failed",
		resp.TotalIDsInFile, resp.SuccessfullyRegistered, resp.SkippedDuplicates, len(resp.FailedEntries))
	log.Printf("[EVENTS]: %s for conference %s", resp.Message, conferenceID)
	return resp, nil
}

// ClaimRegistration verifies the account credentials and binds the
// registration code to it. Claiming a code twice with the same account is a no-op.
func (s *EventsService) ClaimRegistration(ctx context.Context, req *models.AttendeeClaimRequest) (*models.AttendeeClaimResponse, error) {
	user, err := s.deps.Relational.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	regID := strings.TrimSpace(req.RegID)
	reg, err := s.deps.Relational.ClaimRegistration(ctx, regID, user.UserID, s.now())
	if err != nil {
		return nil, err
	}

	conference, err := s.deps.Relational.GetConference(ctx, reg.ConferenceID)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Graph.RegisterForConference(ctx, user.UserID.String(), reg.ConferenceID.String(), regID); err != nil {
		return nil, fmt.Errorf("failed to record registration in graph: %w", err)
	}
	s.deps.Refresher.NotifyUpdate()

	resp := &models.AttendeeClaimResponse{
		Message:             "Registration claimed successfully",
		UserID:              user.UserID,
		ClaimedRegID:        regID,
		ClaimedConferenceID: reg.ConferenceID,
		ConferenceName:      conference.Name,
	}
	if s.deps.Tokens != nil {
		token, err := s.deps.Tokens.Issue(user.UserID.String(), user.RegistrationCategory)
		if err != nil {
			return nil, err
		}
		resp.AccessToken = token
		resp.TokenType = auth.TokenType
	}

	log.Printf("[EVENTS]: User %s claimed registration %s", user.UserID, regID)
	return resp, nil
}

// requireEvent checks both sides of a user/event record exist
func (s *EventsService) requireEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	if _, err := s.requireUser(ctx, "attending", userID); err != nil {
		return err
	}
	if _, err := s.deps.Relational.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, relational.ErrNotFound) {
			return fmt.Errorf("%w: event %s", relational.ErrNotFound, eventID)
		}
		return err
	}
	return nil
}

// RecordAttendance marks a user as present at an event
func (s *EventsService) RecordAttendance(ctx context.Context, req *models.EventAttendanceCreate) (*models.EventAttendanceRead, error) {
	if req.Status == "" {
		req.Status = models.AttendanceAttended
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAttendance, req.Status)
	}
	if err := s.requireEvent(ctx, req.UserID, req.EventID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.deps.Relational.RecordAttendance(ctx, &relational.EventAttendance{
		UserID:           req.UserID,
		EventID:          req.EventID,
		AttendanceStatus: string(req.Status),
		AttendedAt:       now,
		ValidFrom:        now,
		ValidTo:          relational.Infinity,
	}); err != nil {
		return nil, err
	}
	if err := s.deps.Graph.RecordAttendance(ctx, req.UserID.String(), req.EventID.String(), string(req.Status)); err != nil {
		return nil, fmt.Errorf("failed to record attendance in graph: %w", err)
	}
	s.deps.Refresher.NotifyUpdate()

	return &models.EventAttendanceRead{EventAttendanceCreate: *req, AttendedAt: now}, nil
}

// RecordFeedback stores whether a user is interested in an event
func (s *EventsService) RecordFeedback(ctx context.Context, req *models.EventFeedbackCreate) (*models.EventFeedbackRead, error) {
	if err := s.requireEvent(ctx, req.UserID, req.EventID); err != nil {
		return nil, err
	}

	feedback := &relational.EventFeedback{
		FeedbackID:   uuid.New(),
		UserID:       req.UserID,
		EventID:      req.EventID,
		IsInterested: req.IsInterested,
		Comment:      req.Comment,
		FeedbackAt:   s.now(),
	}
	if err := s.deps.Relational.RecordFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	if err := s.deps.Graph.RecordFeedback(ctx, req.UserID.String(), req.EventID.String(), req.IsInterested); err != nil {
		return nil, fmt.Errorf("failed to record feedback in graph: %w", err)
	}

	return &models.EventFeedbackRead{
		FeedbackID:          feedback.FeedbackID,
		EventFeedbackCreate: *req,
		FeedbackAt:          feedback.FeedbackAt,
	}, nil
}
