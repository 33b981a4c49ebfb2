package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/similarity"
	"github.com/nexxt/connect/pkg/sdk"
)

// RefreshSimilarities handles POST requests for a similarity refresh. With
// ?async=true the run is queued on the background refresher instead.
func RefreshSimilarities(c *gin.Context) {
	if c.Query("async") == "true" {
		queued := refresher.Trigger(similarity.TriggerManual)
		resp := sdk.NewSuccessResponse("Similarity refresh queued", map[string]bool{"queued": queued})
		resp.Code = http.StatusAccepted
		c.JSON(resp.AsGinResponse())
		return
	}

	results, err := refresher.RefreshNow(c.Request.Context())
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Similarity refresh failed", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Similarity refresh completed", results).AsGinResponse())
}

// GetSimilarityStatus handles GET requests for the refresher state
func GetSimilarityStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccessResponse("Status retrieved successfully", refresher.Status()).AsGinResponse())
}
