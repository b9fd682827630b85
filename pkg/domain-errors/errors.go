// Package domainerrors defines the coded error type services return. Handlers
// translate codes into HTTP statuses through pkg/platform/httputil; stores
// return pkg/platform/sentinel errors and services wrap them here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound       Code = "not_found"
	CodeBadRequest     Code = "bad_request"
	CodeUnauthorized   Code = "unauthorized"
	CodeInvalidState   Code = "invalid_state"
	CodeIncorrectCode  Code = "incorrect_code"
	CodeDataIntegrity  Code = "data_integrity"
	CodeDIDResolution  Code = "did_resolution"
	CodeInternal       Code = "internal_error"
	CodeFileOperation  Code = "file_operation"
	CodeNotInitialized Code = "data_not_initialized"

	// Cryptographic and temporal rejections.
	CodeVerificationFailed Code = "verification_failed"
	CodeExpired            Code = "expired"
	CodeInvalidProofType   Code = "invalid_proof_type"

	// Submission shape rejections.
	CodeMissingDescriptor    Code = "missing_descriptor"
	CodeUnexpectedDescriptor Code = "unexpected_descriptor"
	CodeFormatMismatch       Code = "format_mismatch"
	CodePathMismatch         Code = "path_mismatch"
	CodeMissingField         Code = "missing_field"
	CodeTypeMismatch         Code = "type_mismatch"
	CodePatternMismatch      Code = "pattern_mismatch"
)

// Error is a coded domain error. Message is safe to show to clients for 4xx codes.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost coded error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal when err is not coded.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeBadRequest, CodeInvalidState, CodeIncorrectCode,
		CodeVerificationFailed, CodeExpired, CodeInvalidProofType,
		CodeMissingDescriptor, CodeUnexpectedDescriptor, CodeFormatMismatch,
		CodePathMismatch, CodeMissingField, CodeTypeMismatch, CodePatternMismatch:
		return http.StatusBadRequest
	case CodeDIDResolution:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
