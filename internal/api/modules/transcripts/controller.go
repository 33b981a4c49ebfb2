package transcripts

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/transcript"
	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/sdk"
)

// ProcessTranscript handles POST requests extracting profile data from a transcript
func ProcessTranscript(c *gin.Context) {
	var req models.TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Transcript must not be empty", nil).AsGinResponse())
		return
	}

	// Saving to someone else's profile needs their token
	if claims, ok := auth.ClaimsFrom(c); ok && req.SaveToGraph && req.PersonID != "" && claims.Subject != req.PersonID {
		c.JSON(sdk.NewErrorResponse(http.StatusForbidden, "Token does not grant access to this user", nil).AsGinResponse())
		return
	}

	resp, err := transcriptService.Process(c.Request.Context(), req)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, transcript.ErrPersonNotFound) {
			code = http.StatusNotFound
		}
		c.JSON(sdk.NewErrorResponse(code, "Failed to process transcript", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse(resp.Message, resp).AsGinResponse())
}

// ListExamples handles GET requests for the available example ids
func ListExamples(c *gin.Context) {
	c.JSON(sdk.NewSuccessResponse("Examples retrieved successfully", transcript.ExampleIDs()).AsGinResponse())
}

// GetExample handles GET requests for a canned transcript
func GetExample(c *gin.Context) {
	id := c.Param("example_id")

	text, ok := transcript.Example(id)
	if !ok {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Example not found", map[string]any{"available": transcript.ExampleIDs()}).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Example retrieved successfully", models.ExampleTranscript{ExampleID: id, Transcript: text}).AsGinResponse())
}
