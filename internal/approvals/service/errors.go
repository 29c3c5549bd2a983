package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ms-approvals/internal/models"
)

var (
	ErrNotFound       = errors.New("approval not found")
	ErrDeadlinePassed = errors.New("response deadline has passed")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("approval was changed by another request")
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeDeadlinePassed = "DEADLINE_PASSED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
)

// MaxRemarksLength is counted in runes
const MaxRemarksLength = 1000

// ErrorCode maps an error to the short machine code surfaced to clients
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDeadlinePassed):
		return CodeDeadlinePassed
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// UserMessage is the human readable text for an error. Internal causes are never exposed.
func UserMessage(err error) string {
	switch ErrorCode(err) {
	case CodeNotFound:
		return "The approval request was not found for your account."
	case CodeDeadlinePassed:
		return "The response deadline for this event has passed. Please contact the school."
	case CodeConflict:
		return "This approval was already updated by another request. Reload and try again."
	case CodeValidation:
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	default:
		return "Something went wrong while processing your request. Please try again later."
	}
}

// IsBusinessError reports whether err is an expected, non-fault outcome
func IsBusinessError(err error) bool {
	return ErrorCode(err) != CodeInternal
}

func parseDecision(decision string) (models.ApprovalStatus, error) {
	status := models.ApprovalStatus(strings.ToUpper(strings.TrimSpace(decision)))
	if !status.IsDecision() {
		return "", fmt.Errorf("%w: decision must be APPROVED or DECLINED, got %q", ErrValidation, decision)
	}
	return status, nil
}

func validateRemarks(remarks *string) error {
	if remarks == nil {
		return nil
	}
	if !utf8.ValidString(*remarks) {
		return fmt.Errorf("%w: remarks must be valid UTF-8 text", ErrValidation)
	}
	if utf8.RuneCountInString(*remarks) > MaxRemarksLength {
		return fmt.Errorf("%w: remarks must be at most %d characters", ErrValidation, MaxRemarksLength)
	}
	return nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, name)
	}
	return nil
}
