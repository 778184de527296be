package api

import (
	"errors"
	"net/http"

	"github.com/gaborage/go-proposals/form"
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/server"
	"github.com/gaborage/go-proposals/submission"
)

// Error codes of the proposals API.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeGenerationTimeout     = "GENERATION_TIMEOUT"
	CodeGenerationUnavailable = "GENERATION_UNAVAILABLE"
	CodeGenerationRejected    = "GENERATION_REJECTED"
	CodeSubmissionInProgress  = "SUBMISSION_IN_PROGRESS"
	CodeNothingToRetry        = "NOTHING_TO_RETRY"
	CodeNothingToCancel       = "NOTHING_TO_CANCEL"
	CodeAlreadySubmitted      = "ALREADY_SUBMITTED"
	CodeSubmissionCanceled    = "SUBMISSION_CANCELED"
	CodeUnknownField          = "UNKNOWN_FIELD"
	CodeInvalidValue          = "INVALID_VALUE"
	CodeDraftLimit            = "DRAFT_LIMIT_REACHED"
)

func rejected(errs []proposal.FieldError, warnings []proposal.FieldWarning) *server.BaseAPIError {
	apiErr := server.NewBusinessLogicError(CodeValidationFailed, proposal.ValidationErrors(errs).Error()).
		WithDetails("errors", errs)
	if len(warnings) > 0 {
		_ = apiErr.WithDetails("warnings", warnings)
	}
	return apiErr
}

func draftNotFound(id string) server.IAPIError {
	return server.NewNotFoundError("Draft " + id)
}

// submissionError maps pipeline errors onto API errors. Generation failures
// carry the job identity so clients can retry.
func submissionError(err error, state submission.State) server.IAPIError {
	var rej *submission.RejectedError
	if errors.As(err, &rej) {
		return rejected(rej.Errors, rej.Warnings)
	}

	var apiErr *server.BaseAPIError
	var te *submission.TransportError
	var se *submission.ServiceError
	switch {
	case errors.As(err, &te) && te.Timeout:
		apiErr = server.NewUpstreamError(CodeGenerationTimeout, "The generation service did not answer in time", http.StatusGatewayTimeout)
	case errors.As(err, &te):
		apiErr = server.NewUpstreamError(CodeGenerationUnavailable, "The generation service could not be reached", http.StatusBadGateway)
	case errors.As(err, &se):
		apiErr = server.NewUpstreamError(CodeGenerationRejected, "The generation service refused the request", http.StatusFailedDependency).
			WithDetails("upstream_status", se.Status).
			WithDetails("upstream_message", se.Message)
		if se.Code != "" {
			_ = apiErr.WithDetails("upstream_code", se.Code)
		}
	case errors.Is(err, submission.ErrSubmissionInProgress):
		return server.NewConflictError(CodeSubmissionInProgress, "A submission is already in progress")
	case errors.Is(err, submission.ErrNothingToRetry):
		return server.NewConflictError(CodeNothingToRetry, "There is no failed submission to retry")
	case errors.Is(err, submission.ErrConsumed):
		return server.NewConflictError(CodeAlreadySubmitted, "The request has already been submitted")
	case errors.Is(err, submission.ErrCanceled):
		return server.NewConflictError(CodeSubmissionCanceled, "The submission was canceled")
	default:
		return server.NewInternalServerError("")
	}

	_ = apiErr.WithDetails("retryable", submission.IsRetryable(err))
	if failed, ok := state.(submission.Failed); ok {
		_ = apiErr.WithDetails("job_id", failed.JobID).WithDetails("attempt", failed.Attempt)
	}
	return apiErr
}

// formError maps form mutation errors onto API errors.
func formError(err error, path string) server.IAPIError {
	var ferr proposal.FieldError
	switch {
	case errors.Is(err, form.ErrEntryNotFound):
		return server.NewNotFoundError("Entry")
	case errors.Is(err, form.ErrUnknownField):
		return server.NewBaseAPIError(CodeUnknownField, err.Error(), http.StatusBadRequest).WithDetails("field", path)
	case errors.As(err, &ferr):
		return rejected([]proposal.FieldError{ferr}, nil)
	default:
		return server.NewInternalServerError("")
	}
}
