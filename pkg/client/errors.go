package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport wraps failures to reach the server or read its reply.
var ErrTransport = errors.New("swiftserve: transport failure")

const (
	codeCSRF            = "csrf_failed"
	codeUnauthenticated = "unauthenticated"
)

// APIError is a rejection reported by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("swiftserve: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("swiftserve: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsAuthError reports whether err means the session is missing or no
// longer valid and the user has to sign in again.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Code == codeUnauthenticated
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func isCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error  string            `json:"error"`
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
