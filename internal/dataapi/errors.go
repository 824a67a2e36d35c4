package dataapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is the normalized form of a non-2xx data-API response.
type APIError struct {
	Status  int
	Code    string
	Message string
	Raw     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dataapi: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("dataapi: %d: %s", e.Status, e.Raw)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Raw: string(body)}
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// IsConflict reports whether err is an APIError with status 409, the
// signal for an already-pending link request.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 409
}
