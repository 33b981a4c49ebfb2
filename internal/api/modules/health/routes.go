package health

import (
	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
)

// RegisterRoutes registers the routes for the health module
func RegisterRoutes(g *gin.RouterGroup, d *deps.Deps) {
	stores = d
	g.GET("/health", getStatus)
}
