// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: caller-visible, abort before any persistence.
	ErrCodeNoValidQuotes          ErrorCode = "NO_VALID_QUOTES"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnknownStage           ErrorCode = "UNKNOWN_STAGE"
	ErrCodeCandidateInvalid       ErrorCode = "CANDIDATE_INVALID"
	ErrCodeInputValidationFailed  ErrorCode = "INPUT_VALIDATION_FAILED"

	// Remote service errors: persistence / stage progression / lookups.
	ErrCodeQuoteNotFound            ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeEvaluationPersistFailed  ErrorCode = "EVALUATION_PERSIST_FAILED"
	ErrCodeStageProgressionFailed   ErrorCode = "STAGE_PROGRESSION_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	// Secondary, non-fatal concerns.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAuditIndexFailed       ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeBackfillSourceMissing  ErrorCode = "BACKFILL_SOURCE_MISSING"

	// AI scoring collaborator.
	ErrCodeAdjustmentFailed  ErrorCode = "ADJUSTMENT_FAILED"
	ErrCodeAdjustmentTimeout ErrorCode = "ADJUSTMENT_TIMEOUT"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNoValidQuotesError signals that the filtered candidate pool was empty.
func NewNoValidQuotesError(quoteID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoValidQuotes,
		Message:   "No valid quotes to forward to client",
		Details:   fmt.Sprintf("quoteId: %s", quoteID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError signals an attempted backward workflow move.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Workflow stage may only move forward",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownStageError signals a stage name outside the defined sequence.
func NewUnknownStageError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownStage,
		Message:   "Unrecognized workflow stage",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateInvalidError signals a received candidate whose data is corrupt.
func NewCandidateInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateInvalid,
		Message:   "Candidate quote carries invalid data",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationFailedError creates a non-retryable schema validation error.
func NewInputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Input payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuoteNotFoundError creates a non-retryable missing quote error.
func NewQuoteNotFoundError(quoteID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteNotFound,
		Message:   "Quote not found",
		Details:   fmt.Sprintf("quoteId: %s", quoteID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEvaluationPersistFailedError creates a retryable evaluation write error.
func NewEvaluationPersistFailedError(quoteID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvaluationPersistFailed,
		Message:   "Failed to persist evaluated quote set",
		Details:   fmt.Sprintf("quoteId: %s, error: %s", quoteID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageProgressionFailedError creates a retryable stage write error.
func NewStageProgressionFailedError(quoteID, stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageProgressionFailed,
		Message:   "Failed to progress workflow stage",
		Details:   fmt.Sprintf("quoteId: %s, stage: %s, error: %s", quoteID, stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
// Callers in the forward path catch and log this; it never aborts a forward.
func NewNotificationSendFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackfillSourceMissingError signals a quote that needs backfill but has
// no evaluated set to draw from. Retrying cannot help until quotes are
// forwarded for the quote, so the error is terminal.
func NewBackfillSourceMissingError(quoteID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackfillSourceMissing,
		Message:   "No evaluated quote set to backfill from",
		Details:   fmt.Sprintf("quoteId: %s", quoteID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdjustmentFailedError creates a retryable AI adjustment error.
func NewAdjustmentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdjustmentFailed,
		Message:   "AI scoring adjustment failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdjustmentTimeoutError creates a retryable AI adjustment timeout error.
func NewAdjustmentTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAdjustmentTimeout,
		Message:   "AI scoring adjustment timeout",
		Details:   "adjustment call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoValidQuotes:            "NO_VALID_QUOTES",
	ErrCodeInvalidTransition:        "INVALID_TRANSITION",
	ErrCodeUnknownStage:             "UNKNOWN_STAGE",
	ErrCodeCandidateInvalid:         "CANDIDATE_INVALID",
	ErrCodeInputValidationFailed:    "INPUT_VALIDATION_FAILED",
	ErrCodeQuoteNotFound:            "QUOTE_NOT_FOUND",
	ErrCodeEvaluationPersistFailed:  "EVALUATION_PERSIST_FAILED",
	ErrCodeStageProgressionFailed:   "STAGE_PROGRESSION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeAuditIndexFailed:         "AUDIT_INDEX_FAILED",
	ErrCodeBackfillSourceMissing:    "BACKFILL_SOURCE_MISSING",
	ErrCodeAdjustmentFailed:         "ADJUSTMENT_FAILED",
	ErrCodeAdjustmentTimeout:        "ADJUSTMENT_TIMEOUT",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeEvaluationPersistFailed,
		ErrCodeStageProgressionFailed,
		ErrCodeAdjustmentFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeAdjustmentTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeNotificationSendFailed:
		return 0 // Single-shot: notification failure is always non-fatal

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// ToStandardError coerces any error into a StandardError. Unknown errors
// become non-retryable INTERNAL_ERROR.
func ToStandardError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "STAGE"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "ADJUSTMENT"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "VALID_QUOTES"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BACKFILL") || strings.Contains(codeStr, "AUDIT"):
		return "RECONCILIATION"
	default:
		return "OTHER"
	}
}
