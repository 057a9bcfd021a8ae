package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reospicespowders/product-backend-sub002/internal/config"
	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
	"github.com/reospicespowders/product-backend-sub002/internal/services"
	"github.com/reospicespowders/product-backend-sub002/internal/validator"
)

// HandlerManager owns every HTTP handler and the auth middleware.
type HandlerManager struct {
	attemptHandler   *AttemptHandler
	resultHandler    *ResultHandler
	analyticsHandler *AnalyticsHandler
	exportHandler    *ExportHandler

	authMiddleware *CasdoorAuthMiddleware
	serviceManager *services.ServiceManager
}

func NewHandlerManager(
	serviceManager *services.ServiceManager,
	validator *validator.Validator,
	logger *slog.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		resultHandler:    NewResultHandler(serviceManager.Result(), validator, logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), logger),
		exportHandler:    NewExportHandler(serviceManager.Export(), logger),
		authMiddleware:   NewCasdoorAuthMiddleware(casdoorConfig, userRepo),
		serviceManager:   serviceManager,
	}
}

// SetupRoutes registers every route on the router. Submission is open to any
// authenticated caller; engine operations require the manager role.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())

	attempts := v1.Group("/attempts")
	{
		attempts.POST("", hm.attemptHandler.SubmitAttempt)
		attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		attempts.POST("/:id/materialize",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.resultHandler.MaterializeAttempt)
	}

	results := v1.Group("/results")
	{
		results.GET("/:id", hm.resultHandler.GetResult)
		results.POST("/:id/manual-grade",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.resultHandler.ApplyManualGrade)
	}

	surveys := v1.Group("/surveys")
	{
		surveys.GET("/:owner_id/attempts",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.attemptHandler.GetAttemptsByOwner)
		surveys.GET("/:owner_id/results",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.resultHandler.GetResultsByOwner)
		surveys.GET("/:owner_id/results/reduced",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.analyticsHandler.GetReducedResults)
		surveys.POST("/:owner_id/results/materialize",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.resultHandler.MaterializeAll)
		surveys.POST("/:owner_id/results/regenerate",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.resultHandler.RegenerateResults)
		surveys.GET("/:owner_id/results/export",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.exportHandler.ExportResults)
	}

	analytics := v1.Group("/analytics")
	{
		analytics.GET("",
			hm.authMiddleware.RequireRoleMiddleware(models.RoleManager),
			hm.analyticsHandler.Analyze)
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "scoring-engine",
	})
}
