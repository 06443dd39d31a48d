package ai

import (
	"errors"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInvalidRequest  Kind = "INVALID_REQUEST"
	KindConfiguration   Kind = "CONFIGURATION"
	KindRemote          Kind = "REMOTE_ERROR"
	KindEmptyCompletion Kind = "EMPTY_COMPLETION"
	KindMalformedOutput Kind = "MALFORMED_STRUCTURED_OUTPUT"
	KindUpstreamFailure Kind = "UPSTREAM_FAILURE"
)

// Error is returned by every stage of the pipeline. Message is safe to show
// to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto the HTTP status the dispatcher answers with.
func (e *Error) Status() int {
	if e.Kind == KindInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var (
	ErrUnknownFeature  = &Error{Kind: KindInvalidRequest, Message: "Invalid AI feature type"}
	ErrMissingContent  = &Error{Kind: KindInvalidRequest, Message: "Missing 'content' in request body"}
	ErrNotConfigured   = &Error{Kind: KindConfiguration, Message: "Server configuration error: missing API key"}
	ErrEmptyCompletion = &Error{Kind: KindEmptyCompletion, Message: "AI response does not contain any text"}
	ErrMalformedOutput = &Error{Kind: KindMalformedOutput, Message: "Failed to parse AI response as JSON"}
)

// RemoteError wraps a failure reported by the completion service.
func RemoteError(message string, err error) *Error {
	if message == "" {
		message = "AI API error"
	}
	return &Error{Kind: KindRemote, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Code is the machine-readable code reported to callers. Completion and
// decoding failures all surface as UPSTREAM_FAILURE.
func (e *Error) Code() string {
	switch e.Kind {
	case KindInvalidRequest, KindConfiguration:
		return string(e.Kind)
	default:
		return string(KindUpstreamFailure)
	}
}
