package proposal

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a blocking field error.
type ErrorCode string

const (
	CodeMissingRequired  ErrorCode = "missing_required"
	CodeInvalidEnumValue ErrorCode = "invalid_enum_value"
	CodeMalformedNumber  ErrorCode = "malformed_number"
	CodeNegativeNumber   ErrorCode = "negative_number"
	CodeEmptyList        ErrorCode = "empty_list"
	// CodeInvalidType is reported by the decoders when a JSON value has the wrong shape.
	CodeInvalidType  ErrorCode = "invalid_type"
	CodeInvalidValue ErrorCode = "invalid_value"
)

// WarningCode classifies a non-blocking finding.
type WarningCode string

const (
	WarnDuplicateEntry      WarningCode = "duplicate_entry"
	WarnDiagramTypesIgnored WarningCode = "diagram_types_ignored"
)

// FieldError identifies one offending field by its JSON path.
type FieldError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Value   string    `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return e.Message
}

// FieldWarning is a non-blocking finding on one field.
type FieldWarning struct {
	Field   string      `json:"field"`
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Value   string      `json:"value,omitempty"`
}

// ValidationErrors is the ordered, non-empty list of errors of a rejected request.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", ve[0].Message)
	default:
		fields := make([]string, 0, len(ve))
		for _, e := range ve {
			fields = append(fields, e.Field)
		}
		return fmt.Sprintf("validation failed: %d errors (%s)", len(ve), strings.Join(fields, ", "))
	}
}

// Findings collects what a validator found. Field paths are absolute.
type Findings struct {
	Errors   []FieldError
	Warnings []FieldWarning
}

func (f *Findings) merge(other Findings) {
	f.Errors = append(f.Errors, other.Errors...)
	f.Warnings = append(f.Warnings, other.Warnings...)
}

// Result is the outcome of Validate: either a normalized Request or Errors.
type Result struct {
	Request  *ProposalRequest `json:"request,omitempty"`
	Errors   []FieldError     `json:"errors,omitempty"`
	Warnings []FieldWarning   `json:"warnings,omitempty"`
}

// Valid reports whether the request passed validation.
func (r Result) Valid() bool {
	return len(r.Errors) == 0 && r.Request != nil
}

// Err returns the errors as a ValidationErrors, or nil when valid.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return ValidationErrors(r.Errors)
}
