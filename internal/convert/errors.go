package convert

import (
	"fmt"
)

// ErrorCode classifies conversion failures.
type ErrorCode string

const (
	ErrorUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrorDecodeFailed      ErrorCode = "DECODE_FAILED"
	ErrorPDFTextFailed     ErrorCode = "PDF_TEXT_FAILED"
	ErrorAICallFailed      ErrorCode = "AI_CALL_FAILED"
	ErrorInvalidTable      ErrorCode = "INVALID_TABLE"
	ErrorWriteFailed       ErrorCode = "WRITE_FAILED"
)

// Error is the single failure type of a conversion.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage is the line shown to people using the app.
func (e *Error) UserMessage() string {
	if e.Cause != nil {
		return fmt.Sprintf("An error occurred: %s: %v", e.Message, e.Cause)
	}
	return "An error occurred: " + e.Message
}

func newError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

func unsupported(mimeType, name string) *Error {
	return newError(ErrorUnsupportedFormat, fmt.Sprintf("unsupported file type %q (%s)", mimeType, name), nil)
}
