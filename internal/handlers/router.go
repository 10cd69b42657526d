package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepwise/scoring-service/internal/services"
	"github.com/prepwise/scoring-service/internal/utils"
)

type HandlerManager struct {
	attemptHandler   *AttemptHandler
	dashboardHandler *DashboardHandler
	rewardHandler    *RewardHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), serviceManager.Export(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Streak(), serviceManager.Progress(), logger),
		rewardHandler:    NewRewardHandler(serviceManager.Reward(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "scoring-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Test attempt routes
		tests := v1.Group("/tests")
		{
			tests.POST("/:test_id/submit", hm.attemptHandler.SubmitAttempt)
			tests.GET("/:test_id/history", hm.attemptHandler.GetHistoryDetail)
			tests.GET("/:test_id/attempts", hm.attemptHandler.GetAttempts)
			tests.GET("/:test_id/can-attempt", hm.attemptHandler.CanAttempt)
			tests.GET("/:test_id/export", hm.attemptHandler.ExportResults)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/streak", hm.dashboardHandler.GetStreak)
			dashboard.GET("/subject-progress", hm.dashboardHandler.GetSubjectProgress)
			dashboard.GET("/coins", hm.dashboardHandler.GetCoinBalance)
		}

		// Reward management routes
		rewards := v1.Group("/rewards")
		{
			rewards.POST("/:id/award", hm.rewardHandler.AwardReward)
			rewards.POST("/:id/revoke", hm.rewardHandler.RevokeReward)
		}
	}
}

// IdentityMiddleware lifts the caller identity forwarded by the API gateway
// into the request context. Requests without an identity are rejected; role
// enforcement happens in the service layer against the user store.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing X-User-ID header",
			})
			return
		}
		c.Set("user_id", userID)
		if role := c.GetHeader("X-User-Role"); role != "" {
			c.Set("user_role", role)
		}
		c.Next()
	}
}
