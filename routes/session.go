package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-qa-platform/services"
	"invoice-qa-platform/utils"
)

// SetupSessionRoutes registers session lifecycle endpoints.
func SetupSessionRoutes(router *gin.Engine, sessions *services.SessionService) {
	router.POST("/sessions", func(c *gin.Context) {
		session := sessions.CreateSession()
		c.JSON(http.StatusCreated, gin.H{
			"session_id": session.ID,
			"stats":      sessions.Stats(session),
		})
	})

	router.GET("/sessions/:id/stats", func(c *gin.Context) {
		session, ok := sessions.GetSession(c.Param("id"))
		if !ok {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}
		c.JSON(http.StatusOK, sessions.Stats(session))
	})

	router.POST("/sessions/:id/reset", func(c *gin.Context) {
		session, ok := sessions.GetSession(c.Param("id"))
		if !ok {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}
		sessions.Reset(session)
		c.JSON(http.StatusOK, gin.H{
			"message": "Session reset",
			"stats":   sessions.Stats(session),
		})
	})
}
