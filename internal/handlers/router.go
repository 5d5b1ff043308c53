package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/psytest-service/internal/metrics"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/services"
	"github.com/SAP-F-2025/psytest-service/internal/utils"
)

// HealthChecker reports whether the service can take traffic
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HandlerManager struct {
	sessionHandler   *SessionHandler
	resultHandler    *ResultHandler
	screeningHandler *ScreeningHandler
	testHandler      *TestHandler
	authMiddleware   *CasdoorAuthMiddleware
	rateLimiter      *RateLimiter
	health           HealthChecker
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	rateLimiter *RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:   NewSessionHandler(serviceManager.Session(), logger),
		resultHandler:    NewResultHandler(serviceManager.Scoring(), logger),
		screeningHandler: NewScreeningHandler(serviceManager.Screening(), logger),
		testHandler:      NewTestHandler(serviceManager.Catalog(), serviceManager.Rubric(), logger),
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		health:           serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staff := hm.authMiddleware.RequireRoleMiddleware(models.RolePsychologist, models.RoleAdmin)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	if hm.rateLimiter != nil {
		v1.Use(RateLimitMiddleware(hm.rateLimiter))
	}
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
		}

		results := v1.Group("/results")
		{
			results.GET("/:id", hm.resultHandler.GetResult)
			results.POST("/:id/recalculate", staff, hm.resultHandler.RecalculateResult)
		}

		screening := v1.Group("/screening")
		{
			screening.POST("/text", hm.screeningHandler.ScreenText)
			screening.POST("/score", hm.screeningHandler.ScreenScore)
		}

		tests := v1.Group("/tests")
		{
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.GET("/:id/rubric", hm.testHandler.GetRubric)
			tests.PUT("/:id/rubric", staff, hm.testHandler.ReplaceRubric)
			tests.POST("/:id/rubric/import", staff, hm.testHandler.ImportRubric)
			tests.GET("/:id/results/export", staff, hm.resultHandler.ExportResults)
		}
	}

	router.GET("/metrics", metrics.PrometheusHandler())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := hm.health.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "psytest-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "psytest-service",
		})
	})
}
