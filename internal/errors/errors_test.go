package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestBenchError_Error(t *testing.T) {
	err := New(ErrCategoryStorage, CodeReadFailed, "fetch failed")
	expected := "[STORAGE:READ_FAILED] fetch failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := Wrap(ErrCategoryStorage, CodeWriteFailed, "insert failed", cause)
	expected := "[STORAGE:WRITE_FAILED] insert failed: database is locked"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryParse, CodeMalformedDocument, "bad json", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestBenchError_Is(t *testing.T) {
	err1 := New(ErrCategoryStorage, CodeReadFailed, "first")
	err2 := New(ErrCategoryStorage, CodeReadFailed, "second")
	err3 := New(ErrCategoryStorage, CodeWriteFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestGetCategory(t *testing.T) {
	err := fmt.Errorf("sweep: %w", NewParseError(CodeMalformedDocument, "bad doc", nil))
	if GetCategory(err) != ErrCategoryParse {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryParse)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty category")
	}
	if !IsParse(err) {
		t.Error("IsParse should see through wrapping")
	}
}

func TestGetCode(t *testing.T) {
	err := NewValidationError(CodeInvalidCount, "count must be positive")
	if GetCode(err) != CodeInvalidCount {
		t.Errorf("got %q, want %q", GetCode(err), CodeInvalidCount)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := NewValidationError(CodeInvalidScale, "bad scale")
	detailed := err.WithDetails(map[string]interface{}{"scale": -1})

	if detailed.Details["scale"] != -1 {
		t.Error("WithDetails should set details")
	}
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		httpStatus int
		grpcCode   codes.Code
	}{
		{NewValidationError(CodeInvalidCount, "x"), http.StatusBadRequest, codes.InvalidArgument},
		{NewStorageError(CodeReadFailed, "x", nil), http.StatusServiceUnavailable, codes.Unavailable},
		{NewParseError(CodeMalformedDocument, "x", nil), http.StatusUnprocessableEntity, codes.DataLoss},
		{NewInternalError("x", nil), http.StatusInternalServerError, codes.Internal},
		{fmt.Errorf("plain"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.httpStatus {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.httpStatus)
		}
		if got := GRPCCode(tt.err); got != tt.grpcCode {
			t.Errorf("GRPCCode(%v) = %v, want %v", tt.err, got, tt.grpcCode)
		}
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	s := NewStorageError(CodeConnectFailed, "db down", cause)
	if s.Category != ErrCategoryStorage || !errors.Is(s, cause) {
		t.Error("NewStorageError mismatch")
	}

	p := NewParseError(CodeDecompressFailed, "corrupt snappy block", cause)
	if p.Category != ErrCategoryParse || p.Code != CodeDecompressFailed {
		t.Error("NewParseError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
