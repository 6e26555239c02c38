package ingest

import (
	"fmt"
	"net/http"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a terminal pipeline failure
type Kind string

const (
	KindValidation         Kind = "validation"
	KindRejectedContent    Kind = "rejected_content"
	KindExtraction         Kind = "extraction"
	KindPersistence        Kind = "persistence"
	KindServiceUnavailable Kind = "service_unavailable"
	KindTimeout            Kind = "timeout"
)

// User-facing messages. They are returned verbatim in API responses.
const (
	MsgNoFile             = "No file provided"
	MsgNotPDF             = "File must be a PDF"
	MsgTooLarge           = "File size exceeds 10MB limit"
	MsgInsufficientText   = "The PDF contains insufficient text content to process"
	MsgRejectedContent    = "The PDF does not appear to be related to a job or employment opportunity"
	MsgAnalysisFailed     = "Failed to analyze job information with AI. Please try again."
	MsgMissingTitle       = "Could not extract job title from PDF"
	MsgMissingCompany     = "Could not extract company name from PDF"
	MsgPersistenceFailed  = "Failed to save job to database"
	MsgServiceUnavailable = "Error connecting to the AI service. Please try again later."
	MsgTimeout            = "Processing took too long. Please try again with a simpler PDF."
	MsgProcessingFailed   = "Error processing job description. Please try again."
)

// Error is the single terminal outcome of a failed run. Message is safe to
// show to users; Err and Stack are for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
	status  int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status the error maps to. An explicit status from
// the pipeline wins; otherwise the kind decides.
func (e *Error) StatusCode() int {
	if e.status != 0 {
		return e.status
	}

	switch e.Kind {
	case KindValidation, KindRejectedContent, KindExtraction:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, status int, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
		status:  status,
	}
}

func validationError(message string, err error) *Error {
	return newError(KindValidation, http.StatusBadRequest, message, err)
}

func rejectedContentError() *Error {
	return newError(KindRejectedContent, http.StatusBadRequest, MsgRejectedContent, nil)
}

// content problems are the uploader's to fix, model problems are ours
func extractionError(status int, message string, err error) *Error {
	return newError(KindExtraction, status, message, err)
}

func persistenceError(err error) *Error {
	return newError(KindPersistence, http.StatusInternalServerError, MsgPersistenceFailed, err)
}

func serviceUnavailableError(err error) *Error {
	return newError(KindServiceUnavailable, http.StatusServiceUnavailable, MsgServiceUnavailable, err)
}

func timeoutError(err error) *Error {
	return newError(KindTimeout, http.StatusRequestTimeout, MsgTimeout, err)
}
