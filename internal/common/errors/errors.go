// Package errors provides the standardized error taxonomy for the approval engine.
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
	ErrCodeFetchFailed        ErrorCode = "FETCH_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeTransitionRejected ErrorCode = "TRANSITION_REJECTED"
	ErrCodePartialBulkFailure ErrorCode = "PARTIAL_BULK_FAILURE"
	ErrCodeMutationInFlight   ErrorCode = "MUTATION_IN_FLIGHT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. It is the shape
// every engine error normalizes to at the HTTP boundary.
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
// 2. Engine Error Taxonomy
// ==========================

// FetchError reports a failed listing/query against the approvals service.
// Recovery is manual: the console keeps the stale page and offers a retry.
type FetchError struct {
	Op      string // operation that failed, e.g. "listApplications"
	Message string // human-readable message from the service
	Err     error  // underlying transport error, may be nil
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Op, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

func NewFetchError(op, message string, err error) *FetchError {
	return &FetchError{Op: op, Message: message, Err: err}
}

// ValidationError is a client-side input error. It never reaches the network
// and never propagates past the component that produced it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation: %s", e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError reports a status change attempted on a record whose
// local view is no longer in the expected source state (stale view or
// double submission). The caller is expected to resync the page.
type InvalidTransitionError struct {
	ID     string
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s %q from status %q", e.Action, e.ID, e.From)
}

func NewInvalidTransitionError(id, from, action string) *InvalidTransitionError {
	return &InvalidTransitionError{ID: id, From: from, Action: action}
}

// PartialBulkFailure aggregates a bulk run where some but not all targets
// failed. It is surfaced as a single notification with counts, never one
// notification per item.
type PartialBulkFailure struct {
	Action    string
	Succeeded int
	Failed    int
}

func (e *PartialBulkFailure) Error() string {
	return fmt.Sprintf("bulk %s: %d succeeded, %d failed", e.Action, e.Succeeded, e.Failed)
}

func NewPartialBulkFailure(action string, succeeded, failed int) *PartialBulkFailure {
	return &PartialBulkFailure{Action: action, Succeeded: succeeded, Failed: failed}
}

// ==========================
// 3. Classification Helpers
// ==========================

func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

func IsPartialBulkFailure(err error) bool {
	var pe *PartialBulkFailure
	return errors.As(err, &pe)
}

// ==========================
// 4. Normalization
// ==========================

// Normalize converts any engine error into a StandardError for the HTTP
// boundary. Unknown errors become non-retryable INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	now := time.Now().UTC()

	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return &StandardError{
			Code:      ErrCodeFetchFailed,
			Message:   fe.Message,
			Details:   fe.Error(),
			Retryable: true,
			Timestamp: now,
		}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &StandardError{
			Code:      ErrCodeValidationFailed,
			Message:   ve.Message,
			Details:   ve.Error(),
			Retryable: false,
			Metadata:  map[string]interface{}{"field": ve.Field},
			Timestamp: now,
		}
	}

	var te *InvalidTransitionError
	if errors.As(err, &te) {
		return &StandardError{
			Code:      ErrCodeInvalidTransition,
			Message:   "Record is no longer in the expected state",
			Details:   te.Error(),
			Retryable: false,
			Metadata:  map[string]interface{}{"id": te.ID, "from": te.From, "action": te.Action},
			Timestamp: now,
		}
	}

	var pe *PartialBulkFailure
	if errors.As(err, &pe) {
		return &StandardError{
			Code:      ErrCodePartialBulkFailure,
			Message:   pe.Error(),
			Retryable: false,
			Metadata: map[string]interface{}{
				"succeeded": pe.Succeeded,
				"failed":    pe.Failed,
				"action":    pe.Action,
			},
			Timestamp: now,
		}
	}

	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: now,
	}
}
