package webhook

import (
	"errors"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindDownstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDownstream:
		return "downstream_send"
	}
	return "internal"
}

var statusByKind = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound:   http.StatusNotFound,
	KindDownstream: http.StatusInternalServerError,
	KindInternal:   http.StatusInternalServerError,
}

const internalErrorMessage = "Internal server error"

// Error is a request failure with the message shown to the caller. Err is
// only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// classify maps any error to the status code and message returned to the
// caller. Unclassified errors, and the server-side kinds, never expose their
// text.
func classify(err error) (Kind, int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return KindInternal, http.StatusInternalServerError, internalErrorMessage
	}
	status, ok := statusByKind[e.Kind]
	if !ok {
		return KindInternal, http.StatusInternalServerError, internalErrorMessage
	}
	if status >= http.StatusInternalServerError || e.Message == "" {
		return e.Kind, status, internalErrorMessage
	}
	return e.Kind, status, e.Message
}
