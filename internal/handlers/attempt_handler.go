package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepwise/scoring-service/internal/services"
	"github.com/prepwise/scoring-service/internal/utils"
)

// AttemptHandler serves submission, history and export endpoints.
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
}

func NewAttemptHandler(attemptService services.AttemptService, exportService services.ExportService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
	}
}

// SubmitAttempt handles POST /api/v1/tests/:test_id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.LogRequest(c, "Submitting test attempt")

	testID, ok := ParseUintParam(c, "test_id")
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.TestID = testID

	resp, err := h.attemptService.Submit(c.Request.Context(), &req, RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to submit attempt")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetHistoryDetail handles GET /api/v1/tests/:test_id/history?attempt_id=N
func (h *AttemptHandler) GetHistoryDetail(c *gin.Context) {
	testID, ok := ParseUintParam(c, "test_id")
	if !ok {
		return
	}

	var attemptID *uint
	if raw := strings.TrimSpace(c.Query("attempt_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid attempt_id", err)
			return
		}
		id := uint(parsed)
		attemptID = &id
	}

	resp, err := h.attemptService.GetHistoryDetail(c.Request.Context(), testID, attemptID, RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to get attempt detail")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAttempts handles GET /api/v1/tests/:test_id/attempts
func (h *AttemptHandler) GetAttempts(c *gin.Context) {
	testID, ok := ParseUintParam(c, "test_id")
	if !ok {
		return
	}

	resp, err := h.attemptService.GetAttempts(c.Request.Context(), testID, RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to get attempt history")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CanAttempt handles GET /api/v1/tests/:test_id/can-attempt
func (h *AttemptHandler) CanAttempt(c *gin.Context) {
	testID, ok := ParseUintParam(c, "test_id")
	if !ok {
		return
	}

	remaining, err := h.attemptService.AttemptsRemaining(c.Request.Context(), testID, RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to check attempt eligibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_attempt":        remaining > 0,
		"attempts_remaining": remaining,
	})
}

// ExportResults handles GET /api/v1/tests/:test_id/export
func (h *AttemptHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "Exporting test results")

	testID, ok := ParseUintParam(c, "test_id")
	if !ok {
		return
	}

	data, err := h.exportService.ExportTestResults(c.Request.Context(), testID, RequestUserID(c))
	if err != nil {
		h.HandleServiceError(c, err, "Failed to export test results")
		return
	}

	filename := "test_results_" + strconv.FormatUint(uint64(testID), 10) + "_" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
