package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestServiceErrorExitCodes(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfig, 4},
		{CategoryAttribution, 5},
		{CategoryInternal, 5},
		{CategoryStore, 6},
		{CategoryConflict, 7},
		{ErrorCategory("mystery"), 1},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.GetExitCode(); got != tt.want {
			t.Errorf("exit code for %s = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestServiceErrorMessageIncludesSuggestion(t *testing.T) {
	err := New(CategoryParse, CodeNoValidRows, "no rows").
		WithSuggestion("check the export format")

	if !strings.Contains(err.Error(), "no rows") {
		t.Error("error message should contain the message")
	}
	if !strings.Contains(err.Error(), "check the export format") {
		t.Error("error message should contain the suggestion")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CategoryStore, CodeRequestFailed, "store call failed")

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if err.Category != CategoryStore || err.Code != CodeRequestFailed {
		t.Error("wrapped error should carry category and code")
	}

	if Wrap(nil, CategoryStore, CodeRequestFailed, "x") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryConflict, CodeDuplicateMonth, "duplicate").
		WithContext("month", "2024-03").
		WithContext("existing_upload_id", "u1")

	if err.Context["month"] != "2024-03" {
		t.Errorf("context month = %v", err.Context["month"])
	}
	if len(err.Context) != 2 {
		t.Errorf("context entries = %d, want 2", len(err.Context))
	}
}

func TestAsServiceError(t *testing.T) {
	inner := StoreError(CodeRequestFailed, "ListPartners", nil)
	wrapped := fmt.Errorf("during report: %w", inner)

	got, ok := AsServiceError(wrapped)
	if !ok {
		t.Fatal("expected to find ServiceError in chain")
	}
	if got.Code != CodeRequestFailed {
		t.Errorf("code = %s, want request_failed", got.Code)
	}

	if _, ok := AsServiceError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
}

func TestHasCode(t *testing.T) {
	err := ParseError(CodeNoValidRows, "", nil)

	if !HasCode(err, CodeNoValidRows) {
		t.Error("HasCode should match the error's code")
	}
	if HasCode(err, CodeInvalidAmount) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(nil, CodeNoValidRows) {
		t.Error("HasCode(nil) should be false")
	}
}

func TestConstructorsAttachSuggestionsAndContext(t *testing.T) {
	fileErr := FileError(CodeFileNotFound, "/tmp/x.csv", nil)
	if fileErr.Category != CategoryFile || fileErr.Suggestion == "" {
		t.Error("file error should carry category and suggestion")
	}
	if fileErr.Context["file_path"] != "/tmp/x.csv" {
		t.Error("file error should record the path")
	}

	storeErr := StoreError(CodeBatchAborted, "CreateTransactions", nil)
	if storeErr.GetExitCode() != 6 {
		t.Errorf("store error exit code = %d, want 6", storeErr.GetExitCode())
	}

	attrErr := AttributionError(CodeProposalState, "cannot confirm", nil)
	if attrErr.Category != CategoryAttribution {
		t.Errorf("attribution category = %s", attrErr.Category)
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ServiceError{
		ParseError(CodeInvalidDate, "1/13", nil),
		ParseError(CodeInvalidAmount, "abc", nil),
		StoreError(CodeRequestFailed, "CreateUpload", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("total = %d, want 3", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("parse count = %d, want 2", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCategory(CategoryStore) {
		t.Error("summary should report the store category")
	}
	if !strings.Contains(summary.Error(), "3 errors") {
		t.Errorf("summary message = %q", summary.Error())
	}
}
