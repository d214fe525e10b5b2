package scv

import (
	"errors"
	"net/http"
)

// ErrorMessage returns the text to show a user for err: the API's own message
// when there is one, fallback otherwise.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode maps err to the status a gateway should answer with.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
