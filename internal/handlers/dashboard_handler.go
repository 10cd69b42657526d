package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepwise/scoring-service/internal/services"
	"github.com/prepwise/scoring-service/internal/utils"
)

// DashboardHandler serves the per-user analytics endpoints.
type DashboardHandler struct {
	BaseHandler
	streakService   services.StreakService
	progressService services.ProgressService
}

func NewDashboardHandler(streakService services.StreakService, progressService services.ProgressService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:     NewBaseHandler(logger),
		streakService:   streakService,
		progressService: progressService,
	}
}

// GetStreak handles GET /api/v1/dashboard/streak
func (h *DashboardHandler) GetStreak(c *gin.Context) {
	streak, err := h.streakService.GetStreak(c.Request.Context(), RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to get study streak")
		return
	}

	c.JSON(http.StatusOK, streak)
}

// GetSubjectProgress handles GET /api/v1/dashboard/subject-progress
func (h *DashboardHandler) GetSubjectProgress(c *gin.Context) {
	progress, err := h.progressService.SubjectProgress(c.Request.Context(), RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to get subject progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subjects": progress})
}

// GetCoinBalance handles GET /api/v1/dashboard/coins
func (h *DashboardHandler) GetCoinBalance(c *gin.Context) {
	balance, err := h.progressService.CoinBalance(c.Request.Context(), RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to get coin balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
