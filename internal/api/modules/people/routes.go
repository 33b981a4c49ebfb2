package people

import (
	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/pkg/models"
)

// Register routes for the people module
func RegisterRoutes(g *gin.RouterGroup, d *deps.Deps) {
	group := g.Group("/people")

	// Account creation is public, everything scoped to a user is guarded
	group.POST("/", CreateUser)

	self := auth.Guard(d.Tokens, d.AuthRequired, "user_id")
	group.GET("/:user_id", self, GetUser)
	group.DELETE("/:user_id", self, DeleteUser)
	group.POST("/update", auth.Guard(d.Tokens, d.AuthRequired, ""), UpdateUser)

	recs := group.Group("/recommendations")
	recs.GET("/demographics/:user_id", self, GetCategoryRecommendations(models.RecommendDemographics))
	recs.GET("/interests/:user_id", self, GetCategoryRecommendations(models.RecommendInterests))
	recs.GET("/skills/:user_id", self, GetCategoryRecommendations(models.RecommendSkills))
	recs.GET("/reg_id/:user_id", self, GetUnifiedRecommendations)
	recs.GET("/events/:user_id", self, GetEventRecommendations)
	recs.GET("/history/:user_id", self, GetRecommendationHistory)
}
