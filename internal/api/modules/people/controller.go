package people

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/recommend"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/sdk"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, relational.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, relational.ErrDuplicate), errors.Is(err, relational.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, recommend.ErrUnknownCategory):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// userIDParam parses a uuid path parameter, writing a 400 when it is malformed
func userIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid user id", err).AsGinResponse())
		return uuid.Nil, false
	}
	return id, true
}

// limitQuery reads the optional ?limit parameter, 0 meaning the default
func limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "limit must be a positive integer", raw).AsGinResponse())
		return 0, false
	}
	return limit, true
}

// CreateUser handles POST requests to create a user
func CreateUser(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	user, err := peopleService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to create user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewCreatedResponse("User created successfully", user).AsGinResponse())
}

// GetUser handles GET requests for a single user
func GetUser(c *gin.Context) {
	id, ok := userIDParam(c, "user_id")
	if !ok {
		return
	}

	user, err := peopleService.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "User not found", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("User retrieved successfully", user).AsGinResponse())
}

// DeleteUser handles DELETE requests for a single user
func DeleteUser(c *gin.Context) {
	id, ok := userIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := peopleService.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to delete user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccess("User deleted successfully").AsGinResponse())
}

// UpdateUser handles POST requests that enrich a user profile
func UpdateUser(c *gin.Context) {
	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	if claims, ok := auth.ClaimsFrom(c); ok && claims.Subject != req.UserID.String() {
		c.JSON(sdk.NewErrorResponse(http.StatusForbidden, "Token does not grant access to this user", nil).AsGinResponse())
		return
	}

	result, err := peopleService.UpdateUser(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to update user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("User updated successfully", result).AsGinResponse())
}

// GetCategoryRecommendations returns a handler serving one recommendation category
func GetCategoryRecommendations(category models.RecommendationCategory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userIDParam(c, "user_id")
		if !ok {
			return
		}
		limit, ok := limitQuery(c)
		if !ok {
			return
		}

		list, err := peopleService.Recommend(c.Request.Context(), id, category, limit)
		if err != nil {
			c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to get recommendations", err).AsGinResponse())
			return
		}

		c.JSON(sdk.NewSuccessResponse("Recommendations retrieved successfully", list).AsGinResponse())
	}
}

// GetUnifiedRecommendations handles GET requests for the weighted ranking
func GetUnifiedRecommendations(c *gin.Context) {
	id, ok := userIDParam(c, "user_id")
	if !ok {
		return
	}
	limit, ok := limitQuery(c)
	if !ok {
		return
	}

	list, err := peopleService.RecommendUnified(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to get recommendations", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Recommendations retrieved successfully", list).AsGinResponse())
}

// GetEventRecommendations handles GET requests for suggested events
func GetEventRecommendations(c *gin.Context) {
	id, ok := userIDParam(c, "user_id")
	if !ok {
		return
	}
	limit, ok := limitQuery(c)
	if !ok {
		return
	}

	list, err := peopleService.RecommendEvents(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to get event recommendations", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Event recommendations retrieved successfully", list).AsGinResponse())
}

// GetRecommendationHistory handles GET requests for the last stored unified ranking
func GetRecommendationHistory(c *gin.Context) {
	id, ok := userIDParam(c, "user_id")
	if !ok {
		return
	}

	rows, err := peopleService.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to get recommendation history", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Recommendation history retrieved successfully", rows).AsGinResponse())
}
