package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/pkg/models"
)

// Register routes for the admin module
func RegisterRoutes(g *gin.RouterGroup, d *deps.Deps) {
	group := g.Group("/admin")
	group.Use(auth.Guard(d.Tokens, d.AuthRequired, ""))
	group.Use(auth.RequireCategory(d.Tokens, d.AuthRequired, string(models.CategoryOrganizer)))

	group.POST("/similarities/refresh", RefreshSimilarities)
	group.GET("/similarities/status", GetSimilarityStatus)
}
