package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

// Not found
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrResultNotFound   = errors.New("result not found")
)

// Invalid state
var (
	ErrSessionNotActive = errors.New("session is not in progress")
	ErrTestInactive     = errors.New("test is not active")
)

// Bad request
var (
	ErrQuestionNotInTest    = errors.New("question does not belong to the session's test")
	ErrOptionNotInQuestion  = errors.New("option does not belong to the question")
	ErrInvalidAnswerPayload = errors.New("invalid answer payload")
	ErrInvalidRubricFile    = errors.New("invalid rubric file")
)

var (
	ErrPaymentRequired = errors.New("test requires a purchase")

	// ErrNarrativeUnavailable is returned by generators that cannot produce
	// an interpretation; callers keep the rubric text.
	ErrNarrativeUnavailable = errors.New("narrative generator unavailable")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business",
	}
}

// PermissionError is returned when the caller may not touch a resource
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
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

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// BusinessRuleError reports a well-formed request that a domain rule rejects
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}
