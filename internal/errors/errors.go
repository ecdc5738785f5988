// Package errors provides structured error types for layoutbench.
// Every error carries a category, a code and a message so the transport
// layers can map failures consistently.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// ErrorCategory classifies errors by the part of the system that raised them.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryParse      ErrorCategory = "PARSE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidCount          = "INVALID_COUNT"
	CodeInvalidScale          = "INVALID_SCALE"
	CodeInvalidVariant        = "INVALID_VARIANT"
	CodeInvalidRepresentation = "INVALID_REPRESENTATION"
	CodeInvalidRecord         = "INVALID_RECORD"

	// Storage codes
	CodeConnectFailed = "CONNECT_FAILED"
	CodeWriteFailed   = "WRITE_FAILED"
	CodeReadFailed    = "READ_FAILED"

	// Parse codes
	CodeMalformedDocument = "MALFORMED_DOCUMENT"
	CodeDecompressFailed  = "DECOMPRESS_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BenchError is the structured error type used throughout the system.
type BenchError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BenchError) WithDetails(details map[string]interface{}) *BenchError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsParse reports whether err is a parse failure. Parse failures drop a single
// record and are never fatal to the surrounding operation.
func IsParse(err error) bool {
	return GetCategory(err) == ErrCategoryParse
}

// HTTPStatus maps an error chain to an HTTP status code.
func HTTPStatus(err error) int {
	switch GetCategory(err) {
	case ErrCategoryValidation:
		return http.StatusBadRequest
	case ErrCategoryStorage:
		return http.StatusServiceUnavailable
	case ErrCategoryParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps an error chain to a gRPC status code.
func GRPCCode(err error) codes.Code {
	switch GetCategory(err) {
	case ErrCategoryValidation:
		return codes.InvalidArgument
	case ErrCategoryStorage:
		return codes.Unavailable
	case ErrCategoryParse:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *BenchError {
	return New(ErrCategoryValidation, code, message)
}

func NewStorageError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewParseError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryParse, code, message, cause)
}

func NewInternalError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
