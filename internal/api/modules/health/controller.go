package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/pkg/sdk"
)

var stores *deps.Deps

// Status reports the reachability of each backing store
type Status struct {
	Postgres string `json:"postgres"`
	Neo4j    string `json:"neo4j"`
}

func check(ctx context.Context, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		return "unreachable: " + err.Error()
	}
	return "ok"
}

// Return status of the API and its stores
func getStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := Status{
		Postgres: check(ctx, stores.Relational.Ping),
		Neo4j:    check(ctx, stores.Graph.Ping),
	}
	if status.Postgres != "ok" || status.Neo4j != "ok" {
		c.JSON(sdk.NewErrorResponse(http.StatusServiceUnavailable, "Degraded", status).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("OK", status).AsGinResponse())
}
