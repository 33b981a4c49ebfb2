package transcripts

import (
	"github.com/gin-gonic/gin"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/auth"
)

// Register routes for the transcripts module
func RegisterRoutes(g *gin.RouterGroup, d *deps.Deps) {
	group := g.Group("/transcripts")

	group.POST("/process", auth.Guard(d.Tokens, d.AuthRequired, ""), ProcessTranscript)
	group.GET("/examples", ListExamples)
	group.GET("/examples/:example_id", GetExample)
}
