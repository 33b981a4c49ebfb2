package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateUser(t *testing.T) {
	id := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/people/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req models.UserCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(NewCreatedResponse("created", models.UserRead{UserID: id, Email: req.Email}))
	}))
	defer server.Close()

	user, err := NewClient(server.URL, "").CreateUser(context.Background(), &models.UserCreate{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, user.UserID)
}

func TestClient_RecommendationsSendsTokenAndLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/people/recommendations/skills/u-1", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(NewSuccessResponse("ok", models.RecommendationList[models.Candidate]{
			UserID:          "u-1",
			Category:        models.RecommendSkills.Label(),
			Recommendations: []models.Candidate{{UserID: "u-2", SimilarityScore: 0.5}},
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "").WithToken("secret")
	list, err := client.Recommendations(context.Background(), "u-1", models.RecommendSkills, 3)
	require.NoError(t, err)
	require.Len(t, list.Recommendations, 1)
	assert.Equal(t, "u-2", list.Recommendations[0].UserID)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(NewErrorResponse(http.StatusNotFound, "User not found", errors.New("record not found")))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").GetUser(context.Background(), uuid.NewString())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "User not found: record not found")
}

func TestClient_PlainErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").ProcessTranscript(context.Background(), &models.TranscriptRequest{Transcript: "hi"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Contains(t, err.Error(), "bad gateway")
}
