// Package errors defines the error taxonomy for the partner revenue service.
//
// Errors carry a category and code so the CLI can map failures to exit codes
// and user-facing suggestions, and so tests can assert on failure modes
// without string matching. Stack traces come from github.com/pkg/errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors.
type ErrorCategory string

const (
	CategoryFile        ErrorCategory = "file"
	CategoryParse       ErrorCategory = "parse"
	CategoryValidation  ErrorCategory = "validation"
	CategoryConfig      ErrorCategory = "configuration"
	CategoryStore       ErrorCategory = "store"
	CategoryAttribution ErrorCategory = "attribution"
	CategoryConflict    ErrorCategory = "conflict"
	CategoryInternal    ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileEmpty      ErrorCode = "file_empty"

	// Parse errors
	CodeMalformedInput ErrorCode = "malformed_input"
	CodeNoValidRows    ErrorCode = "no_valid_rows"
	CodeInvalidAmount  ErrorCode = "invalid_amount"
	CodeInvalidDate    ErrorCode = "invalid_date"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeOutOfRange   ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Store errors
	CodeRequestFailed  ErrorCode = "request_failed"
	CodeUnexpectedBody ErrorCode = "unexpected_body"
	CodeBatchAborted   ErrorCode = "batch_aborted"
	CodeRecordNotFound ErrorCode = "record_not_found"

	// Attribution errors
	CodeProposalState     ErrorCode = "proposal_state"
	CodePartnerIneligible ErrorCode = "partner_ineligible"

	// Conflict errors
	CodeDuplicateMonth ErrorCode = "duplicate_month"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ServiceError is the base error type for all application errors.
type ServiceError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error.
func (e *ServiceError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfig:
		return 4
	case CategoryAttribution, CategoryInternal:
		return 5
	case CategoryStore:
		return 6
	case CategoryConflict:
		return 7
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *ServiceError) WithSuggestion(suggestion string) *ServiceError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ServiceError.
func New(category ErrorCategory, code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ServiceError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ServiceError {
	if err == nil {
		return nil
	}

	return &ServiceError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file-related error.
func FileError(code ErrorCode, path string, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileEmpty:
		message = fmt.Sprintf("file is empty: %s", path)
		suggestion = "export the payment report again and retry"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := build(err, CategoryFile, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error.
func ParseError(code ErrorCode, detail string, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeNoValidRows:
		message = "no valid transaction rows found in the uploaded file"
		suggestion = "check the file is a payment export with date, merchant and amount columns"
	case CodeMalformedInput:
		message = fmt.Sprintf("malformed input: %s", detail)
		suggestion = "check the file format matches a comma-separated payment export"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount: %s", detail)
		suggestion = "amounts must look like £1,234.56"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date: %s", detail)
		suggestion = "dates must use D/M/YYYY or DD/MM/YYYY"
	default:
		message = fmt.Sprintf("parse error: %s", detail)
		suggestion = "check the file format and data integrity"
	}

	result := build(err, CategoryParse, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("detail", detail)
}

// ValidationError creates a validation-related error.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := build(err, CategoryValidation, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigError creates a configuration-related error.
func ConfigError(code ErrorCode, setting string, value interface{}, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	result := build(err, CategoryConfig, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StoreError creates a record-store-related error.
func StoreError(code ErrorCode, operation string, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeRequestFailed:
		message = fmt.Sprintf("record store request failed during %s", operation)
		suggestion = "check network connectivity and the store API token"
	case CodeUnexpectedBody:
		message = fmt.Sprintf("record store returned an unexpected response during %s", operation)
		suggestion = "check the store schema matches the expected record shapes"
	case CodeBatchAborted:
		message = fmt.Sprintf("batch persistence aborted during %s", operation)
		suggestion = "earlier batches are committed; retry to persist the remaining rows"
	case CodeRecordNotFound:
		message = fmt.Sprintf("record not found during %s", operation)
		suggestion = "the record may have been deleted; refresh and retry"
	default:
		message = fmt.Sprintf("record store error during %s", operation)
		suggestion = "try again or check the store status"
	}

	result := build(err, CategoryStore, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// AttributionError creates an attribution-related error.
func AttributionError(code ErrorCode, detail string, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeProposalState:
		message = fmt.Sprintf("invalid proposal state transition: %s", detail)
		suggestion = "a proposal can only be confirmed or dismissed while pending"
	case CodePartnerIneligible:
		message = fmt.Sprintf("partner is not eligible for attribution: %s", detail)
		suggestion = "the partner must be signed with a signature date on record"
	default:
		message = fmt.Sprintf("attribution error: %s", detail)
		suggestion = "review the partner roster and retry"
	}

	result := build(err, CategoryAttribution, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("detail", detail)
}

// InternalError creates an internal error.
func InternalError(operation string, err error) *ServiceError {
	result := build(err, CategoryInternal, CodeUnexpectedError,
		fmt.Sprintf("unexpected error during %s", operation))
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *ServiceError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// ErrorSummary provides a summary of multiple errors.
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*ServiceError       `json:"errors"`
}

// NewErrorSummary creates a new error summary.
func NewErrorSummary(errs []*ServiceError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary.
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category.
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	_, ok := err.(*ServiceError)
	return ok
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// HasCode reports whether the error chain contains a ServiceError with the
// given code.
func HasCode(err error, code ErrorCode) bool {
	if serviceErr, ok := AsServiceError(err); ok {
		return serviceErr.Code == code
	}
	return false
}
