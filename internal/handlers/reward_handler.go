package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepwise/scoring-service/internal/services"
	"github.com/prepwise/scoring-service/internal/utils"
)

// RewardHandler serves the manual award management endpoints.
type RewardHandler struct {
	BaseHandler
	rewardService services.RewardService
}

func NewRewardHandler(rewardService services.RewardService, logger utils.Logger) *RewardHandler {
	return &RewardHandler{
		BaseHandler:   NewBaseHandler(logger),
		rewardService: rewardService,
	}
}

// AwardReward handles POST /api/v1/rewards/:id/award
func (h *RewardHandler) AwardReward(c *gin.Context) {
	h.LogRequest(c, "Awarding reward manually")

	rewardID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.rewardService.Award(c.Request.Context(), rewardID, &req, RequestUserID(c)); err != nil {
		h.HandleServiceError(c, err, "Failed to award reward")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Reward awarded", gin.H{
		"reward_id": rewardID,
		"user_ids":  req.UserIDs,
	})
}

// RevokeReward handles POST /api/v1/rewards/:id/revoke
func (h *RewardHandler) RevokeReward(c *gin.Context) {
	h.LogRequest(c, "Revoking reward")

	rewardID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.rewardService.Revoke(c.Request.Context(), rewardID, &req, RequestUserID(c)); err != nil {
		h.HandleServiceError(c, err, "Failed to revoke reward")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Reward revoked", gin.H{
		"reward_id": rewardID,
		"user_ids":  req.UserIDs,
	})
}
