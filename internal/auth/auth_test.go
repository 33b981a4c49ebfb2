package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("", "anything"), ErrInvalidCredentials)
}

func TestTokenManager(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("user-1", "speaker")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "speaker", claims.Category)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("other", time.Hour)
		require.NoError(t, err)
		_, err = other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: "connect"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Verify(unsigned)
		assert.Error(t, err)
	})

	_, err = NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestGuard(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)
	token, err := m.Issue("u1", "attendee")
	require.NoError(t, err)
	id := uuid.New()
	idToken, err := m.Issue(id.String(), "attendee")
	require.NoError(t, err)

	router := func(required bool) *gin.Engine {
		r := gin.New()
		r.GET("/people/:user_id", Guard(m, required, "user_id"), func(c *gin.Context) {
			if claims, ok := ClaimsFrom(c); ok {
				c.String(http.StatusOK, claims.Subject)
				return
			}
			c.String(http.StatusOK, "anonymous")
		})
		return r
	}

	tests := []struct {
		name     string
		required bool
		path     string
		header   string
		code     int
		body     string
	}{
		{"not required", false, "/people/u1", "", http.StatusOK, "anonymous"},
		{"missing token", true, "/people/u1", "", http.StatusUnauthorized, ""},
		{"malformed token", true, "/people/u1", "Bearer nope", http.StatusUnauthorized, ""},
		{"other user", true, "/people/u2", "Bearer " + token, http.StatusForbidden, ""},
		{"own user", true, "/people/u1", "Bearer " + token, http.StatusOK, "u1"},
		{"own user upper case", true, "/people/" + strings.ToUpper(id.String()), "Bearer " + idToken, http.StatusOK, id.String()},
		{"other uuid", true, "/people/" + uuid.NewString(), "Bearer " + idToken, http.StatusForbidden, ""},
		{"non uuid case differs", true, "/people/U1", "Bearer " + token, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router(tt.required).ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireCategory(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)
	organizer, err := m.Issue("u1", "organizer")
	require.NoError(t, err)
	attendee, err := m.Issue("u2", "attendee")
	require.NoError(t, err)

	router := func(required bool) *gin.Engine {
		r := gin.New()
		r.POST("/admin/refresh", Guard(m, required, ""), RequireCategory(m, required, "organizer"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	tests := []struct {
		name     string
		required bool
		header   string
		code     int
	}{
		{"not required", false, "", http.StatusNoContent},
		{"missing token", true, "", http.StatusUnauthorized},
		{"attendee", true, "Bearer " + attendee, http.StatusForbidden},
		{"organizer", true, "Bearer " + organizer, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router(tt.required).ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
