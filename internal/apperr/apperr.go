// Package apperr carries the error kinds the API distinguishes. Messages
// are safe to show to end users verbatim.
package apperr

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindWrongStatus     Kind = "wrong_status"
	KindMissingData     Kind = "missing_data"
	KindValidation      Kind = "validation_failed"
	KindRateLimited     Kind = "rate_limited"
	KindCSRF            Kind = "csrf_failed"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func WrongStatus(message string) *Error     { return New(KindWrongStatus, message) }
func MissingData(message string) *Error     { return New(KindMissingData, message) }
func RateLimited(message string) *Error     { return New(KindRateLimited, message) }

// Validation builds a per-field error. The message lists every field so
// clients that ignore Fields still show the whole problem.
func Validation(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return &Error{Kind: KindValidation, Message: strings.Join(parts, "; "), Fields: fields}
}

func Field(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

// Invalid is a validation error on one field whose message is shown as is.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: map[string]string{field: message}}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden, KindCSRF:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindWrongStatus:
		return http.StatusConflict
	case KindMissingData, KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Response is the JSON error body.
type Response struct {
	Error  string            `json:"error"`
	Code   Kind              `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToResponse maps any error to a status and body. Errors that are not
// *Error are reported as a generic internal error.
func ToResponse(err error) (int, Response) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, Response{Error: "Internal server error", Code: KindInternal}
	}
	return HTTPStatus(e.Kind), Response{Error: e.Message, Code: e.Kind, Fields: e.Fields}
}
