package tokengate

import (
	"encoding/json"
	"fmt"
)

// APIError represents an error response from the tokengate API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tokengate: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// apiErrorWrapper matches the tokengate API error envelope.
type apiErrorWrapper struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte) error {
	var wrapper apiErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Code == "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       "unknown",
			Message:    string(body),
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Code:       wrapper.Error.Code,
		Message:    wrapper.Error.Message,
	}
}
