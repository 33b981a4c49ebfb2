package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/api/modules/events"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/similarity"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/sdk"
	"github.com/nexxt/connect/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

func init() {
	gin.SetMode(gin.TestMode)
	auth.PasswordCost = bcrypt.MinCost
}

func newTestServer(t *testing.T, values map[string]string) (*gin.Engine, *deps.Deps) {
	t.Helper()
	d, err := deps.Wire(utils.NewConfig(values), tuning.Default(), relational.NewInMemoryStore(), graph.NewInMemoryStore())
	require.NoError(t, err)
	return NewRouter(d), d
}

func send(t *testing.T, engine *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) sdk.ApiResponse[T] {
	t.Helper()
	var resp sdk.ApiResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func createUser(t *testing.T, engine *gin.Engine, first, email string) models.UserRead {
	t.Helper()
	w := send(t, engine, http.MethodPost, "/api/v1/people/", models.UserCreate{
		Email:     email,
		Password:  testPassword,
		FirstName: first,
		LastName:  "Test",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.UserRead](t, w).Data
}

func updateUser(t *testing.T, engine *gin.Engine, update models.UserUpdate) models.UserUpdateResult {
	t.Helper()
	w := send(t, engine, http.MethodPost, "/api/v1/people/update", update, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.UserUpdateResult](t, w).Data
}

func skills(names ...string) []models.UserSkill {
	out := make([]models.UserSkill, len(names))
	for i, n := range names {
		out[i] = models.UserSkill{SkillName: n}
	}
	return out
}

func interests(names ...string) []models.UserInterest {
	out := make([]models.UserInterest, len(names))
	for i, n := range names {
		out[i] = models.UserInterest{InterestName: n}
	}
	return out
}

func TestWelcomeHealthAndMetrics(t *testing.T) {
	engine, _ := newTestServer(t, nil)

	w := send(t, engine, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(t, engine, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]string](t, w)
	assert.Equal(t, "ok", health.Data["postgres"])
	assert.Equal(t, "ok", health.Data["neo4j"])

	w = send(t, engine, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "connect_http_requests_total")

	w = send(t, engine, http.MethodGet, "/api/v1/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPeopleLifecycle(t *testing.T) {
	engine, _ := newTestServer(t, nil)
	alice := createUser(t, engine, "Alice", "alice@example.com")
	assert.Equal(t, models.CategoryAttendee, alice.RegistrationCategory)
	assert.Nil(t, alice.RegID)

	t.Run("duplicate email", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/people/", models.UserCreate{
			Email: "ALICE@example.com", Password: testPassword, FirstName: "A", LastName: "B",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid category", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/people/", models.UserCreate{
			Email: "vip@example.com", Password: testPassword, FirstName: "V", LastName: "P",
			RegistrationCategory: "vip",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/people/", map[string]string{
			"email": "short@example.com", "password": "abc", "first_name": "S", "last_name": "P",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice@example.com", decode[models.UserRead](t, w).Data.Email)
		assert.NotContains(t, w.Body.String(), "password")

		w = send(t, engine, http.MethodGet, "/api/v1/people/not-a-uuid", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = send(t, engine, http.MethodGet, "/api/v1/people/"+uuid.NewString(), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update unknown user", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/people/update", models.UserUpdate{
			UserID: uuid.New(), UserSkills: skills("Python"),
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := send(t, engine, http.MethodDelete, "/api/v1/people/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = send(t, engine, http.MethodGet, "/api/v1/people/"+alice.UserID.String(), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProfileUpdateAndRecommendations(t *testing.T) {
	engine, d := newTestServer(t, map[string]string{"SIMILARITY_UPDATE_THRESHOLD": "100"})
	alice := createUser(t, engine, "Alice", "alice@example.com")
	bob := createUser(t, engine, "Bob", "bob@example.com")
	carol := createUser(t, engine, "Carol", "carol@example.com")

	years := 8
	result := updateUser(t, engine, models.UserUpdate{
		UserID:        alice.UserID,
		UserSkills:    skills("Python", "Go"),
		UserInterests: interests("AI"),
		UserCompany:   &models.UserCompany{CompanyName: "Acme"},
		Location:      "Berlin",
	})
	assert.Equal(t, []string{"Python", "Go"}, result.Skills)
	assert.Equal(t, "Acme", result.Company)
	require.Len(t, result.Matches, 5)
	assert.True(t, result.Matches[0].Created)

	result = updateUser(t, engine, models.UserUpdate{
		UserID:            bob.UserID,
		UserSkills:        skills("python", "Go", "SQL"),
		UserInterests:     interests("AI"),
		UserJobRoles:      []models.UserJobRole{{JobRoleTitle: "Data Scientist"}},
		UserCompany:       &models.UserCompany{CompanyName: "Acme"},
		Location:          "Berlin",
		YearsOfExperience: &years,
	})
	assert.Equal(t, []string{"Python", "Go", "SQL"}, result.Skills, "existing vocabulary is reused")
	assert.Equal(t, "exact", result.Matches[0].Method)

	updateUser(t, engine, models.UserUpdate{
		UserID:        carol.UserID,
		UserSkills:    skills("Python"),
		UserInterests: interests("Gardening"),
		Location:      "Paris",
	})
	assert.Equal(t, 3, d.Refresher.Status().PendingUpdates)

	w := send(t, engine, http.MethodPost, "/api/v1/admin/similarities/refresh", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]graph.ProjectionResult](t, w).Data, len(graph.Projections))

	w = send(t, engine, http.MethodGet, "/api/v1/admin/similarities/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[similarity.Status](t, w).Data
	assert.Equal(t, 1, status.Runs)
	assert.Zero(t, status.PendingUpdates)

	t.Run("skills", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/recommendations/skills/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		list := decode[models.RecommendationList[models.Candidate]](t, w).Data
		assert.Equal(t, models.RecommendSkills.Label(), list.Category)
		require.Len(t, list.Recommendations, 2)
		assert.Equal(t, bob.UserID.String(), list.Recommendations[0].UserID)
		assert.Equal(t, "Bob Test", list.Recommendations[0].RecommendedUser)
		require.NotNil(t, list.Recommendations[0].Role)
		assert.Equal(t, "Data Scientist", *list.Recommendations[0].Role)
		assert.Equal(t, carol.UserID.String(), list.Recommendations[1].UserID)
	})

	t.Run("limit", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/recommendations/skills/"+alice.UserID.String()+"?limit=1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[models.RecommendationList[models.Candidate]](t, w).Data.Recommendations, 1)

		w = send(t, engine, http.MethodGet, "/api/v1/people/recommendations/skills/"+alice.UserID.String()+"?limit=zero", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("demographics", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/recommendations/demographics/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[models.RecommendationList[models.Candidate]](t, w).Data
		require.Len(t, list.Recommendations, 1)
		assert.Equal(t, []string{"Acme"}, list.Recommendations[0].Commonalities[models.SharedCompanies])
	})

	t.Run("unified and history", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/recommendations/reg_id/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		list := decode[models.RecommendationList[models.UnifiedRecommendation]](t, w).Data
		assert.Equal(t, models.RecommendUnified.Label(), list.Category)
		require.Len(t, list.Recommendations, 2)
		assert.Equal(t, bob.UserID.String(), list.Recommendations[0].UserID)
		assert.Greater(t, list.Recommendations[0].FinalScore, list.Recommendations[1].FinalScore)

		w = send(t, engine, http.MethodGet, "/api/v1/people/recommendations/history/"+alice.UserID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]models.RecommendationSnapshot](t, w).Data
		require.Len(t, rows, 2)
		assert.Equal(t, bob.UserID, rows[0].RecommendedUserID)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/recommendations/interests/"+uuid.NewString(), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func createConference(t *testing.T, engine *gin.Engine, organizer *uuid.UUID) models.ConferenceRead {
	t.Helper()
	w := send(t, engine, http.MethodPost, "/api/v1/events/conferences/", models.ConferenceCreate{
		Name:         "DevConf",
		StartDate:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 5, 3, 18, 0, 0, 0, time.UTC),
		LocationName: "Berlin",
		OrganizerID:  organizer,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.ConferenceRead](t, w).Data
}

func eventPayload(title string, kind models.EventType, topics ...string) models.EventCreate {
	return models.EventCreate{
		Title:     title,
		EventType: kind,
		StartTime: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC),
		Topics:    topics,
	}
}

func TestConferencesAndEvents(t *testing.T) {
	engine, _ := newTestServer(t, nil)
	organizer := createUser(t, engine, "Olga", "olga@example.com")
	exhibitor := createUser(t, engine, "Eve", "eve@example.com")

	missing := uuid.New()
	w := send(t, engine, http.MethodPost, "/api/v1/events/conferences/", models.ConferenceCreate{
		Name: "Ghost", StartDate: time.Now(), EndDate: time.Now().Add(time.Hour), OrganizerID: &missing,
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	conf := createConference(t, engine, &organizer.UserID)
	assert.Equal(t, "Berlin", conf.LocationName)

	w = send(t, engine, http.MethodGet, "/api/v1/events/conferences/"+conf.ConferenceID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DevConf", decode[models.ConferenceRead](t, w).Data.Name)

	base := "/api/v1/events/conferences/" + conf.ConferenceID.String() + "/events/"

	t.Run("exhibitors on a panel are reported", func(t *testing.T) {
		payload := eventPayload("AI Panel", models.EventPanel, "AI")
		payload.ExhibitorUserIDs = []uuid.UUID{exhibitor.UserID}

		w := send(t, engine, http.MethodPost, base, payload, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		event := decode[models.EventCreateResponse](t, w).Data
		assert.Len(t, event.Warnings, 1)
		assert.Empty(t, event.ExhibitorUserIDs)
	})

	t.Run("exhibition links exhibitors", func(t *testing.T) {
		payload := eventPayload("Expo", models.EventExhibition, "Robotics")
		payload.ExhibitorUserIDs = []uuid.UUID{exhibitor.UserID}

		w := send(t, engine, http.MethodPost, base, payload, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		event := decode[models.EventCreateResponse](t, w).Data
		assert.Empty(t, event.Warnings)
		assert.Equal(t, []uuid.UUID{exhibitor.UserID}, event.ExhibitorUserIDs)
	})

	t.Run("rejected events", func(t *testing.T) {
		tests := []struct {
			name string
			path string
			body models.EventCreate
			code int
		}{
			{"bad conference id", "/api/v1/events/conferences/nope/events/", eventPayload("X", models.EventPanel), http.StatusBadRequest},
			{"unknown conference", "/api/v1/events/conferences/" + uuid.NewString() + "/events/", eventPayload("X", models.EventPanel), http.StatusNotFound},
			{"unknown type", base, eventPayload("X", "session"), http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := send(t, engine, http.MethodPost, tt.path, tt.body, "")
				assert.Equal(t, tt.code, w.Code, w.Body.String())
			})
		}
	})

	t.Run("list and calendar", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/events/conferences/"+conf.ConferenceID.String()+"/events", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.EventRead](t, w).Data, 2)

		w = send(t, engine, http.MethodGet, "/api/v1/events/conferences/"+conf.ConferenceID.String()+"/calendar.ics", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")

		cal, err := ics.ParseCalendar(strings.NewReader(w.Body.String()))
		require.NoError(t, err)
		require.Len(t, cal.Events(), 2)

		titles := []string{}
		for _, e := range cal.Events() {
			titles = append(titles, e.GetProperty(ics.ComponentPropertySummary).Value)
		}
		assert.ElementsMatch(t, []string{"AI Panel", "Expo"}, titles)
	})
}

func upload(t *testing.T, engine *gin.Engine, conferenceID uuid.UUID, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "codes.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/conferences/"+conferenceID.String()+"/registrations/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegistrationUploadAndClaim(t *testing.T) {
	engine, d := newTestServer(t, map[string]string{"JWT_SECRET": "test-secret"})
	alice := createUser(t, engine, "Alice", "alice@example.com")
	createUser(t, engine, "Bob", "bob@example.com")
	conf := createConference(t, engine, nil)

	w := upload(t, engine, conf.ConferenceID, "reg_id,email\nREG-1,a@x.io\nREG-2\nREG-1\n\n"+strings.Repeat("x", 101)+"\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[models.BulkRegistrationUploadResponse](t, w).Data
	assert.Equal(t, "codes.csv", summary.FileName)
	assert.Equal(t, 4, summary.TotalIDsInFile)
	assert.Equal(t, 2, summary.SuccessfullyRegistered)
	assert.Equal(t, 1, summary.SkippedDuplicates)
	assert.Len(t, summary.FailedEntries, 1)

	w = upload(t, engine, conf.ConferenceID, "REG-2\nREG-3\n")
	summary = decode[models.BulkRegistrationUploadResponse](t, w).Data
	assert.Equal(t, 1, summary.SuccessfullyRegistered)
	assert.Equal(t, 1, summary.SkippedDuplicates)

	long := strings.Repeat("y", 70_000)
	w = upload(t, engine, conf.ConferenceID, long+"\nREG-LONG-OK\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary = decode[models.BulkRegistrationUploadResponse](t, w).Data
	assert.Equal(t, 2, summary.TotalIDsInFile)
	assert.Equal(t, 1, summary.SuccessfullyRegistered)
	require.Len(t, summary.FailedEntries, 1)
	assert.Equal(t, long[:events.MaxRegIDLength]+"...", summary.FailedEntries[0])

	w = upload(t, engine, uuid.New(), "REG-9\n")
	assert.Equal(t, http.StatusNotFound, w.Code)

	claim := func(email, password, regID string) *httptest.ResponseRecorder {
		return send(t, engine, http.MethodPost, "/api/v1/events/registrations/claim", models.AttendeeClaimRequest{
			Email: email, Password: password, RegID: regID,
		}, "")
	}

	w = claim("alice@example.com", testPassword, "REG-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	claimed := decode[models.AttendeeClaimResponse](t, w).Data
	assert.Equal(t, alice.UserID, claimed.UserID)
	assert.Equal(t, conf.ConferenceID, claimed.ClaimedConferenceID)
	assert.Equal(t, "DevConf", claimed.ConferenceName)
	assert.Equal(t, auth.TokenType, claimed.TokenType)

	claims, err := d.Tokens.Verify(claimed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID.String(), claims.Subject)

	w = send(t, engine, http.MethodGet, "/api/v1/people/"+alice.UserID.String(), nil, "")
	require.NotNil(t, decode[models.UserRead](t, w).Data.RegID)

	tests := []struct {
		name     string
		email    string
		password string
		regID    string
		code     int
	}{
		{"same user again", "alice@example.com", testPassword, "REG-1", http.StatusOK},
		{"wrong password", "alice@example.com", "wrong-password", "REG-2", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testPassword, "REG-2", http.StatusUnauthorized},
		{"unknown code", "alice@example.com", testPassword, "REG-404", http.StatusNotFound},
		{"claimed by someone else", "bob@example.com", testPassword, "REG-1", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := claim(tt.email, tt.password, tt.regID)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestAttendanceFeedbackAndEventRecommendations(t *testing.T) {
	engine, _ := newTestServer(t, nil)
	alice := createUser(t, engine, "Alice", "alice@example.com")
	updateUser(t, engine, models.UserUpdate{UserID: alice.UserID, UserInterests: interests("AI", "Robotics")})
	conf := createConference(t, engine, nil)

	base := "/api/v1/events/conferences/" + conf.ConferenceID.String() + "/events/"
	ids := map[string]uuid.UUID{}
	for _, e := range []models.EventCreate{
		eventPayload("Robots and AI", models.EventWorkshop, "AI", "Robotics"),
		eventPayload("AI in Finance", models.EventPanel, "AI"),
		eventPayload("Attended", models.EventKeynote, "AI"),
		eventPayload("Not for me", models.EventPanel, "Robotics"),
	} {
		w := send(t, engine, http.MethodPost, base, e, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids[e.Title] = decode[models.EventCreateResponse](t, w).Data.EventID
	}

	w := send(t, engine, http.MethodPost, "/api/v1/events/attendance", models.EventAttendanceCreate{
		UserID: alice.UserID, EventID: ids["Attended"],
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.AttendanceAttended, decode[models.EventAttendanceRead](t, w).Data.Status)

	w = send(t, engine, http.MethodPost, "/api/v1/events/feedback", models.EventFeedbackCreate{
		UserID: alice.UserID, EventID: ids["Not for me"], IsInterested: false, Comment: "seen it",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEqual(t, uuid.Nil, decode[models.EventFeedbackRead](t, w).Data.FeedbackID)

	t.Run("rejected records", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/events/attendance", models.EventAttendanceCreate{
			UserID: alice.UserID, EventID: ids["Attended"], Status: "asleep",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = send(t, engine, http.MethodPost, "/api/v1/events/attendance", models.EventAttendanceCreate{
			UserID: alice.UserID, EventID: uuid.New(),
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = send(t, engine, http.MethodPost, "/api/v1/events/feedback", models.EventFeedbackCreate{
			UserID: uuid.New(), EventID: ids["Attended"],
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = send(t, engine, http.MethodGet, "/api/v1/people/recommendations/events/"+alice.UserID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recs := decode[models.RecommendationList[models.EventRecommendation]](t, w).Data.Recommendations
	require.Len(t, recs, 2)
	assert.Equal(t, ids["Robots and AI"].String(), recs[0].EventID)
	assert.Equal(t, 2.0, recs[0].Score)
	assert.Equal(t, ids["AI in Finance"].String(), recs[1].EventID)
}

func TestTranscripts(t *testing.T) {
	engine, d := newTestServer(t, nil)
	alice := createUser(t, engine, "Alice", "alice@example.com")

	w := send(t, engine, http.MethodGet, "/api/v1/transcripts/examples/software_engineer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	example := decode[models.ExampleTranscript](t, w).Data
	assert.NotEmpty(t, example.Transcript)

	w = send(t, engine, http.MethodGet, "/api/v1/transcripts/examples/astronaut", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = send(t, engine, http.MethodGet, "/api/v1/transcripts/examples", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]string](t, w).Data, 3)

	t.Run("extract only", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/transcripts/process", models.TranscriptRequest{Transcript: example.Transcript}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[models.TranscriptResponse](t, w).Data
		require.NotNil(t, resp.ExtractedData)
		assert.Contains(t, resp.ExtractedData.Skills, "python")
		assert.Nil(t, resp.PersonID)
	})

	t.Run("save to graph", func(t *testing.T) {
		pending := d.Refresher.Status().PendingUpdates
		w := send(t, engine, http.MethodPost, "/api/v1/transcripts/process", models.TranscriptRequest{
			Transcript: example.Transcript, PersonID: alice.UserID.String(), SaveToGraph: true,
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[models.TranscriptResponse](t, w).Data
		require.NotNil(t, resp.PersonID)
		assert.Equal(t, alice.UserID.String(), *resp.PersonID)
		assert.Equal(t, pending+1, d.Refresher.Status().PendingUpdates)
	})

	t.Run("unknown person", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/transcripts/process", models.TranscriptRequest{
			Transcript: example.Transcript, PersonID: uuid.NewString(), SaveToGraph: true,
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty transcript", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/transcripts/process", map[string]string{"transcript": "   "}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthGuard(t *testing.T) {
	engine, d := newTestServer(t, map[string]string{"JWT_SECRET": "test-secret", "AUTH_REQUIRED": "true"})
	alice := createUser(t, engine, "Alice", "alice@example.com")
	bob := createUser(t, engine, "Bob", "bob@example.com")

	aliceToken, err := d.Tokens.Issue(alice.UserID.String(), string(alice.RegistrationCategory))
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		token string
		code  int
	}{
		{"no token", "/api/v1/people/" + alice.UserID.String(), "", http.StatusUnauthorized},
		{"garbage token", "/api/v1/people/" + alice.UserID.String(), "garbage", http.StatusUnauthorized},
		{"other user", "/api/v1/people/" + bob.UserID.String(), aliceToken, http.StatusForbidden},
		{"own profile", "/api/v1/people/" + alice.UserID.String(), aliceToken, http.StatusOK},
		{"own recommendations", "/api/v1/people/recommendations/skills/" + alice.UserID.String(), aliceToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(t, engine, http.MethodGet, tt.path, nil, tt.token)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	t.Run("update for another user", func(t *testing.T) {
		w := send(t, engine, http.MethodPost, "/api/v1/people/update", models.UserUpdate{
			UserID: bob.UserID, UserSkills: skills("Go"),
		}, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin needs organizer", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/admin/similarities/status", nil, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		organizerToken, err := d.Tokens.Issue(alice.UserID.String(), string(models.CategoryOrganizer))
		require.NoError(t, err)
		w = send(t, engine, http.MethodGet, "/api/v1/admin/similarities/status", nil, organizerToken)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("upper case user id in path", func(t *testing.T) {
		w := send(t, engine, http.MethodGet, "/api/v1/people/"+strings.ToUpper(alice.UserID.String()), nil, aliceToken)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("embedding size differs from columns", func(t *testing.T) {
		_, err := deps.Wire(utils.NewConfig(map[string]string{"EMBEDDING_DIMENSIONS": "512"}), nil,
			relational.NewInMemoryStore(), graph.NewInMemoryStore())
		assert.ErrorContains(t, err, "EMBEDDING_DIMENSIONS")
	})

	t.Run("auth required without secret", func(t *testing.T) {
		_, err := deps.Wire(utils.NewConfig(map[string]string{"AUTH_REQUIRED": "true"}), nil,
			relational.NewInMemoryStore(), graph.NewInMemoryStore())
		assert.Error(t, err)
	})
}

func TestAsyncRefresh(t *testing.T) {
	engine, _ := newTestServer(t, nil)

	w := send(t, engine, http.MethodPost, "/api/v1/admin/similarities/refresh?async=true", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decode[map[string]bool](t, w).Data["queued"])
}
