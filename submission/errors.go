package submission

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gaborage/go-proposals/proposal"
)

var (
	// ErrSubmissionInProgress is returned by Submit and Retry while an attempt is in flight.
	ErrSubmissionInProgress = errors.New("submission: a submission is already in progress")
	// ErrNothingToRetry is returned by Retry outside the Failed state.
	ErrNothingToRetry = errors.New("submission: no failed submission to retry")
	// ErrConsumed is returned once a submission has succeeded.
	ErrConsumed = errors.New("submission: request already submitted")
	// ErrCanceled is returned to the caller whose attempt was cancelled.
	ErrCanceled = errors.New("submission: canceled")
)

// RejectedError carries the field errors of a request that failed validation.
type RejectedError struct {
	Errors   []proposal.FieldError
	Warnings []proposal.FieldWarning
}

func (e *RejectedError) Error() string {
	return "submission rejected: " + proposal.ValidationErrors(e.Errors).Error()
}

// Unwrap exposes the errors as proposal.ValidationErrors.
func (e *RejectedError) Unwrap() error {
	return proposal.ValidationErrors(e.Errors)
}

// TransportError is a failure to get an answer from the generation service:
// connection errors, timeouts and unreadable responses.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("generation %s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("generation %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is an answer from the generation service refusing the request.
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("generation service error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("generation service error (status %d): %s", e.Status, e.Message)
}

// IsRetryable reports whether resending the same payload may succeed.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status >= http.StatusInternalServerError || se.Status == http.StatusTooManyRequests
	}
	return false
}
