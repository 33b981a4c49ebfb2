package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/models"
)

// Client wraps calls to the connect API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL. token may be empty when
// the server does not require authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithToken returns a copy of the client that sends token as its bearer token
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Create a new user
func (c *Client) CreateUser(ctx context.Context, req *models.UserCreate) (*models.UserRead, error) {
	var out ApiResponse[models.UserRead]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/people/", req, &out); err != nil {
		return nil, err
	}

	if out.Data.UserID == uuid.Nil {
		return nil, fmt.Errorf("no id returned")
	}

	return &out.Data, nil
}

// Get a user by id
func (c *Client) GetUser(ctx context.Context, userID string) (*models.UserRead, error) {
	var out ApiResponse[models.UserRead]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/people/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Update a user's profile
func (c *Client) UpdateUser(ctx context.Context, req *models.UserUpdate) (*models.UserUpdateResult, error) {
	var out ApiResponse[models.UserUpdateResult]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/people/update", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Recommendations fetches one category of people recommendations
func (c *Client) Recommendations(ctx context.Context, userID string, category models.RecommendationCategory, limit int) (*models.RecommendationList[models.Candidate], error) {
	var out ApiResponse[models.RecommendationList[models.Candidate]]
	path := recommendationPath(string(category), userID, limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// UnifiedRecommendations fetches the cross-category ranking of a user
func (c *Client) UnifiedRecommendations(ctx context.Context, userID string, limit int) (*models.RecommendationList[models.UnifiedRecommendation], error) {
	var out ApiResponse[models.RecommendationList[models.UnifiedRecommendation]]
	if err := c.doJSON(ctx, http.MethodGet, recommendationPath("reg_id", userID, limit), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// EventRecommendations fetches events matching a user's interests
func (c *Client) EventRecommendations(ctx context.Context, userID string, limit int) (*models.RecommendationList[models.EventRecommendation], error) {
	var out ApiResponse[models.RecommendationList[models.EventRecommendation]]
	if err := c.doJSON(ctx, http.MethodGet, recommendationPath("events", userID, limit), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

func recommendationPath(kind, userID string, limit int) string {
	path := fmt.Sprintf("/api/v1/people/recommendations/%s/%s", kind, url.PathEscape(userID))
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return path
}

// Create a conference
func (c *Client) CreateConference(ctx context.Context, req *models.ConferenceCreate) (*models.ConferenceRead, error) {
	var out ApiResponse[models.ConferenceRead]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/events/conferences/", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Create an event inside a conference
func (c *Client) CreateEvent(ctx context.Context, conferenceID string, req *models.EventCreate) (*models.EventCreateResponse, error) {
	path := fmt.Sprintf("/api/v1/events/conferences/%s/events/", url.PathEscape(conferenceID))

	var out ApiResponse[models.EventCreateResponse]
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Claim an organizer-issued registration code
func (c *Client) ClaimRegistration(ctx context.Context, req *models.AttendeeClaimRequest) (*models.AttendeeClaimResponse, error) {
	var out ApiResponse[models.AttendeeClaimResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/events/registrations/claim", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Extract profile data from a transcript, optionally saving it to the graph
func (c *Client) ProcessTranscript(ctx context.Context, req *models.TranscriptRequest) (*models.TranscriptResponse, error) {
	var out ApiResponse[models.TranscriptResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/transcripts/process", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the envelope's message when the body carries one
		b, _ := io.ReadAll(resp.Body)
		var envelope ApiResponse[any]
		if json.Unmarshal(b, &envelope) == nil {
			if err := envelope.Err(); err != nil {
				return &StatusError{Code: resp.StatusCode, Err: err}
			}
		}
		return &StatusError{Code: resp.StatusCode, Err: fmt.Errorf("backend '%s %s' failed: %s", method, path, string(b))}
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }
