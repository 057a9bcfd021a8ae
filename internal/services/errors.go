package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrSurveyNotFound      = errors.New("survey not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrResultNotFound      = errors.New("result not found")
	ErrNotManuallyGradable = errors.New("question type is not manually gradable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// PermissionError describes a denied operation on a resource.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
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
