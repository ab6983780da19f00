package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"partner-revenue-service/internal/uploads"
	"partner-revenue-service/pkg/errors"
	"partner-revenue-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// A duplicate month is a decision point rather than a failure, so it
	// gets its own phrasing before the generic taxonomy handling.
	var dup *uploads.DuplicateMonthError
	if stderrors.As(err, &dup) {
		return h.handleDuplicateMonth(dup)
	}

	h.logger.WithError(err).Error("Command failed")

	if serviceErr, ok := errors.AsServiceError(err); ok {
		return h.handleServiceError(serviceErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleDuplicateMonth(err *uploads.DuplicateMonthError) int {
	fmt.Fprintf(os.Stderr, "Upload conflict: %s\n", err.Error())
	fmt.Fprintf(os.Stderr, "\nNothing was changed. To replace the existing upload, re-run with --replace.\n")
	return err.ServiceError().GetExitCode()
}

// handleServiceError handles ServiceError with detailed context
func (h *CLIErrorHandler) handleServiceError(err *errors.ServiceError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors outside the taxonomy
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, check the logs or run with --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the export is a comma-separated payment report
• Dates must use D/M/YYYY, amounts must look like £1,234.56
• Ensure the file uses UTF-8 encoding
• Use 'partnerrev ingest --help' for examples of correct file formats`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify month keys use YYYY-MM
• Check that all values are within acceptable ranges`

	case errors.CategoryConfig:
		return `Configuration error help:
• Check your command-line flags and arguments
• Set the store URL and token via --store-url/--store-token or
  PARTNERREV_STORE_URL/PARTNERREV_STORE_TOKEN
• Verify configuration file syntax if using --config`

	case errors.CategoryStore:
		return `Record store error help:
• Check network connectivity to the record store
• Verify the API token has not expired
• Batch failures leave earlier batches committed; retrying is safe`

	case errors.CategoryAttribution:
		return `Attribution error help:
• Proposals can only be confirmed or dismissed while pending
• A partner must be signed with a signature date to receive attribution
• Check the partner roster and retry`

	case errors.CategoryConflict:
		return `Conflict help:
• Each month has at most one upload
• Re-run with --replace to replace the existing upload, or cancel`

	default:
		return `For more help:
• Use 'partnerrev --help' for general help
• Use 'partnerrev ingest --help' or 'partnerrev report --help' for
  command-specific help`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}
