// Package apierror maps service errors onto the JSON error body clients branch on.
package apierror

import (
	"context"
	"errors"
	"net/http"

	"techsupport/backend/internal/directory"
	"techsupport/backend/internal/domain"
)

type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

func New(status int, code, message string) Error {
	return Error{Status: status, Code: code, Message: message}
}

var (
	Unauthorized  = New(http.StatusUnauthorized, "UNAUTHORIZED", "a valid bearer token is required")
	MalformedBody = New(http.StatusBadRequest, "INVALID_INPUT", "request body could not be parsed")
	Timeout       = New(http.StatusGatewayTimeout, "TIMEOUT", "the request took too long")
	Internal      = New(http.StatusInternalServerError, "INTERNAL", "something went wrong, please try again")
	Directory     = New(http.StatusServiceUnavailable, "DIRECTORY_UNAVAILABLE", "the technician directory is unavailable")
)

func InvalidInput(message string) Error {
	return New(http.StatusBadRequest, "INVALID_INPUT", message)
}

// FromError picks the response for err. Errors without a rule code become Internal so
// that infrastructure detail never reaches the client.
func FromError(err error) Error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if code, ok := domain.CodeOf(err); ok {
		return New(statusOf(code), code, err.Error())
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, directory.ErrUnavailable):
		return Directory
	}
	return Internal
}

func statusOf(code string) int {
	switch code {
	case "INVALID_INPUT", "INVALID_RANGE", "OVERLAP", "IN_PAST", "OUT_OF_RANGE":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "NOT_OWNER", "NOT_TECHNICIAN", "NOT_REQUESTER":
		return http.StatusForbidden
	case "INVALID_STATE", "ALREADY_RATED", "UNAVAILABLE", "NOT_FINISHED", "IDEMPOTENCY_CONFLICT":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
