package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexxt/connect/pkg/sdk"
)

const claimsKey = "auth_claims"

// Guard returns middleware that requires a valid bearer token. When param is
// set, the token subject must equal that path parameter. A nil manager or
// required=false lets every request through.
func Guard(m *TokenManager, required bool, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || !required {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Bearer token required", nil).AsGinResponse())
			return
		}

		claims, err := m.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Invalid access token", err).AsGinResponse())
			return
		}

		if param != "" && !sameSubject(c.Param(param), claims.Subject) {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusForbidden, "Token does not grant access to this user", nil).AsGinResponse())
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireCategory returns middleware that only admits tokens whose
// registration category is one of categories. It must run after Guard and,
// like Guard, lets every request through when auth is not enforced.
func RequireCategory(m *TokenManager, required bool, categories ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || !required {
			c.Next()
			return
		}

		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Bearer token required", nil).AsGinResponse())
			return
		}
		if !slices.Contains(categories, claims.Category) {
			c.AbortWithStatusJSON(sdk.NewErrorResponse(http.StatusForbidden, "Token category is not allowed here", nil).AsGinResponse())
			return
		}

		c.Next()
	}
}

// sameSubject compares user ids as UUIDs so letter case does not matter.
// Values that are not UUIDs must match exactly.
func sameSubject(param, subject string) bool {
	a, errA := uuid.Parse(param)
	b, errB := uuid.Parse(subject)
	if errA != nil || errB != nil {
		return param == subject
	}
	return a == b
}

// ClaimsFrom returns the verified claims stored by Guard
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
