// Package errors provides standardized error handling for the immunization
// engine and its plumbing. Business-rule rejections are NOT errors: the
// eligibility validator returns typed decisions for those. This package covers
// technical failures, missing entities and malformed catalog data.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeChildNotFound   ErrorCode = "CHILD_NOT_FOUND"
	ErrCodeVaccineNotFound ErrorCode = "VACCINE_NOT_FOUND"
	ErrCodeRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeCatalogInvalid    ErrorCode = "CATALOG_INVALID"
	ErrCodeMissingBirthDate  ErrorCode = "MISSING_BIRTH_DATE"
	ErrCodeMissingDate       ErrorCode = "MISSING_REQUIRED_DATE"
	ErrCodeInvalidReference  ErrorCode = "INVALID_REFERENCE_DATE"
	ErrCodeInvalidSeverity   ErrorCode = "INVALID_REACTION_SEVERITY"
	ErrCodeScheduleSeedError ErrorCode = "SCHEDULE_SEED_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDuplicateRecord          ErrorCode = "DUPLICATE_RECORD"
	ErrCodeDuplicateNotification    ErrorCode = "DUPLICATE_NOTIFICATION"

	ErrCodeNotificationDispatchFailed ErrorCode = "NOTIFICATION_DISPATCH_FAILED"
	ErrCodeInvalidStateTransition     ErrorCode = "INVALID_STATE_TRANSITION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// IsNotFound reports whether err is one of the missing-entity codes. Missing
// referenced entities are always reported distinctly, never treated as empty
// history.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrCodeChildNotFound, ErrCodeVaccineNotFound, ErrCodeRecordNotFound:
		return true
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewChildNotFoundError creates a non-retryable missing-child error.
func NewChildNotFoundError(childID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChildNotFound,
		Message:   "Child not found",
		Details:   fmt.Sprintf("childId: %s", childID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVaccineNotFoundError creates a non-retryable missing-vaccine error.
func NewVaccineNotFoundError(vaccineID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVaccineNotFound,
		Message:   "Vaccine not found",
		Details:   fmt.Sprintf("vaccineId: %s", vaccineID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable missing-record error.
func NewRecordNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "Vaccination record not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogInvalidError flags malformed catalog data. This is a
// configuration error surfaced at load time, never masked.
func NewCatalogInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogInvalid,
		Message:   "Schedule catalog data is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingBirthDateError flags a child row without a birth date. Date math
// rejects missing required dates rather than substituting defaults.
func NewMissingBirthDateError(childID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingBirthDate,
		Message:   "Child has no birth date",
		Details:   fmt.Sprintf("childId: %s", childID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingDateError flags a zero value for a required date field.
func NewMissingDateError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingDate,
		Message:   "Required date is missing",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidReferenceDateError flags a zero reference date passed to the engine.
func NewInvalidReferenceDateError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidReference,
		Message:   "Reference date is required",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSeverityError flags a reaction severity outside the known scale.
func NewInvalidSeverityError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSeverity,
		Message:   "Unknown reaction severity",
		Details:   fmt.Sprintf("severity: %s", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScheduleSeedError creates a retryable seeding error.
func NewScheduleSeedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScheduleSeedError,
		Message:   "Schedule seeding failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateRecordError flags a unique-constraint hit on
// (child, vaccine, dose). The validator normally catches this first; the
// constraint closes the race between validation and persistence.
func NewDuplicateRecordError(childID, vaccineID string, doseNumber int) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateRecord,
		Message:   "Dose already recorded for this child",
		Details:   fmt.Sprintf("childId: %s, vaccineId: %s, dose: %d", childID, vaccineID, doseNumber),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateNotificationError flags a unique-constraint hit on the
// notification natural key.
func NewDuplicateNotificationError(dedupKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateNotification,
		Message:   "Notification already exists for this key",
		Details:   fmt.Sprintf("dedupKey: %s", dedupKey),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationDispatchFailedError creates a retryable delivery error.
func NewNotificationDispatchFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationDispatchFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStateTransitionError flags a notification lifecycle violation.
func NewInvalidStateTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStateTransition,
		Message:   "Notification state transition not allowed",
		Details:   fmt.Sprintf("%s -> %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeScheduleSeedError,
		ErrCodeNotificationDispatchFailed:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}
