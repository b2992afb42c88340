package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/classpulse/classpulse-backend/internal/config"
	"github.com/classpulse/classpulse-backend/internal/handler"
	"github.com/classpulse/classpulse-backend/internal/middleware"
	"github.com/classpulse/classpulse-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Poll *handler.PollHandler
	WS   *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the student-facing mutation routes (60/min per IP —
	// a full classroom answering from one NAT still fits).
	studentLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── Poll API ──────────────────────────────────────────────────────
	polls := router.Group("/api/v1/polls")
	{
		polls.POST("", handlers.Poll.CreatePoll)
		polls.GET("/:id", handlers.Poll.GetPoll)
		polls.POST("/:id/questions", handlers.Poll.AskQuestion)
		polls.GET("/:id/history", handlers.Poll.GetHistory)
		polls.GET("/:id/live-result", handlers.Poll.LiveResult)
		polls.GET("/:id/results/:question_id", handlers.Poll.QuestionResults)
		polls.POST("/join", studentLimiter.Middleware(), handlers.Poll.JoinPoll)
		polls.POST("/submit-answer", studentLimiter.Middleware(), handlers.Poll.SubmitAnswer)
		polls.POST("/remove-student", handlers.Poll.RemoveStudent)
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/polls/:id/stream", handlers.WS.PollEventStream)
	}

	return router
}
