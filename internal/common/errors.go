package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Consolidation errors. Each one aborts the whole submission.
var (
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrNoDocuments       = errors.New("no PDFs uploaded")
	ErrNoExtractableText = errors.New("no extractable text")
	ErrMalformedResponse = errors.New("LLM returned invalid JSON")
	ErrMissingCredential = errors.New("OPENAI_API_KEY is not set")
	ErrUpstream          = errors.New("LLM request failed")
	ErrUnavailable       = errors.New("service unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// PayloadTooLarge builds the error returned when the cumulative upload size passes the limit.
func PayloadTooLarge(limitBytes int64) error {
	mb := limitBytes / (1024 * 1024)
	return NewAppError("PAYLOAD_TOO_LARGE", fmt.Sprintf("Total file size exceeds %dMB", mb), ErrPayloadTooLarge)
}

// NoDocuments is returned when a submission carries no files at all.
func NoDocuments() error {
	return NewAppError("NO_DOCUMENTS", "No PDFs uploaded", ErrNoDocuments)
}

// NoExtractableText is returned when no document in a submission produced text.
func NoExtractableText() error {
	return NewAppError("NO_TEXT", "Could not extract text from any uploaded PDF", ErrNoExtractableText)
}

// InvalidInputf wraps ErrInvalidInput with a client-facing message.
func InvalidInputf(format string, args ...any) error {
	return NewAppError("INVALID_INPUT", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// PublicMessage returns the message suitable for a response body: the AppError message when
// present, otherwise the error text.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
