package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"codenest/internal/middleware"
	"codenest/internal/platform/logger"
)

type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	Log            *logger.Logger

	Auth       *AuthHandler
	Execution  *ExecutionHandler
	Submission *SubmissionHandler
	Progress   *ProgressHandler
	Tutor      *TutorHandler
	Projects   *ProjectHandler

	Access  middleware.AccessValidator
	Limiter *middleware.RateLimiter
	Health  map[string]HealthCheck
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Log))
	// спан должен существовать, пока пишется строка лога
	r.Use(otelgin.Middleware(cfg.ServiceName), middleware.RequestLogger(cfg.Log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(corsCfg))

	limit := func(key string, n int, window time.Duration) gin.HandlerFunc {
		if cfg.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return cfg.Limiter.Limit(key, n, window)
	}
	authRequired := middleware.AuthMiddleware(cfg.Access)

	r.GET("/health", healthHandler(cfg.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit("register", 10, time.Hour), cfg.Auth.Register)
			auth.POST("/login", limit("login", 5, time.Minute), cfg.Auth.Login)
			auth.POST("/refresh", cfg.Auth.Refresh)
			auth.POST("/logout", cfg.Auth.Logout)
		}

		api.GET("/execute/languages", cfg.Execution.Languages)
		api.GET("/analytics/leaderboard", cfg.Progress.Leaderboard)

		protected := api.Group("")
		protected.Use(authRequired)
		{
			// каждый запуск даёт опыт, поэтому частоту ограничиваем
			protected.POST("/execute", limit("execute", 30, time.Minute), cfg.Execution.Execute)
			protected.POST("/submissions", limit("submit", 10, time.Minute), cfg.Submission.Submit)

			protected.GET("/progress/completed", cfg.Progress.Completed)
			protected.POST("/progress/complete", cfg.Progress.Complete)

			protected.GET("/topics/:language", cfg.Progress.Roadmap)
			protected.GET("/topics/:language/:order", cfg.Progress.Topic)

			protected.GET("/analytics", cfg.Progress.Analytics)
			protected.PUT("/analytics/skills", cfg.Progress.UpdateSkills)
			protected.POST("/analytics/badge", cfg.Progress.AwardBadge)

			projects := protected.Group("/projects")
			{
				projects.GET("", cfg.Projects.List)
				projects.POST("", cfg.Projects.Create)
				projects.GET("/:id", cfg.Projects.Get)
				projects.PUT("/:id", cfg.Projects.Update)
				projects.DELETE("/:id", cfg.Projects.Delete)
				projects.POST("/:id/execution", cfg.Projects.RecordExecution)
			}

			ai := protected.Group("/ai")
			ai.Use(limit("ai", 20, time.Minute))
			{
				ai.POST("/explain-error", cfg.Tutor.ExplainError)
				ai.POST("/analyze-complexity", cfg.Tutor.AnalyzeComplexity)
				ai.POST("/chat", cfg.Tutor.Chat)
				ai.POST("/hint", cfg.Tutor.Hint)
			}
		}
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": result})
	}
}
