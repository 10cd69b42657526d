package services

import (
	"errors"
	"fmt"

	apperrors "github.com/prepwise/scoring-service/internal/errors"
	"github.com/prepwise/scoring-service/internal/scoring"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")

	// Test specific errors
	ErrTestNotFound     = errors.New("test not found")
	ErrTestNotPublished = errors.New("test is not published")

	// Attempt specific errors
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrMalformedSubmission mirrors the scoring package sentinel so both
	// layers classify the same failure.
	ErrMalformedSubmission  = scoring.ErrMalformedSubmission
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded for this test")

	// Analytics specific errors
	ErrStaleComparisonData = errors.New("attempt history is not ordered by attempt time, refetch required")

	// Reward specific errors
	ErrRewardNotFound           = errors.New("reward not found")
	ErrRewardEvaluationConflict = errors.New("reward counter changed during evaluation")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsForbidden checks if error represents a permission failure
func IsForbidden(err error) bool {
	if errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrMalformedSubmission) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrRewardEvaluationConflict) ||
		errors.Is(err, ErrStaleComparisonData)
}
