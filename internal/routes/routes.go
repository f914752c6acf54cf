package routes

import (
	"github.com/gin-gonic/gin"

	"vault-planning/internal/auth"
	"vault-planning/internal/handlers"
	"vault-planning/internal/middleware"
)

// SetupRoutes builds the gin router for the planning API.
func SetupRoutes(h *handlers.Handler, issuer *auth.Issuer) *gin.Engine {
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := ginRouter.Group("/api")
	{
		api.POST("/session", h.CreateSession)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(issuer))
	{
		protected.GET("/today", h.GetToday)

		protected.POST("/tasks", h.CreateTask)
		protected.POST("/tasks/reorder", h.ReorderTasks)
		protected.GET("/tasks/:id", h.GetTask)
		protected.PATCH("/tasks/:id", h.UpdateTask)
		protected.DELETE("/tasks/:id", h.DeleteTask)
		protected.POST("/tasks/:id/done", h.MarkTaskDone)
		protected.POST("/tasks/:id/reopen", h.ReopenTask)
		protected.POST("/tasks/:id/start", h.StartTask)
		protected.POST("/tasks/:id/stop", h.StopTask)
		protected.POST("/tasks/:id/note", h.OpenTaskNote)
		protected.GET("/tasks/:id/timers", h.ListTimers)

		protected.POST("/daily/:day", h.OpenDaily)

		protected.GET("/ui-state", h.GetUIState)
		protected.PUT("/ui-state", h.PutUIState)

		protected.GET("/ws", h.WebSocket)
	}

	return ginRouter
}
