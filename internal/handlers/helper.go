package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/prepwise/scoring-service/internal/errors"
)

// ParseUintParam parses a numeric path parameter. On failure it writes a 400
// response and returns ok=false.
func ParseUintParam(c *gin.Context, param string) (uint, bool) {
	idStr := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// RequestUserID returns the caller identity forwarded by the API gateway.
func RequestUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if s, ok := userID.(string); ok {
			return s
		}
	}
	return ""
}

func asValidationErrors(err error, dest *apperrors.ValidationErrors) bool {
	return errors.As(err, dest)
}
