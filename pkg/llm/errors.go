package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-200 response from the backend, with the provider's
// message extracted from the JSON error envelope when present.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "unknown API error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
	}
	return "API error: " + msg
}

// NewAPIError builds an APIError from a raw response payload.
func NewAPIError(statusCode int, payload string) *APIError {
	payload = strings.TrimSpace(payload)
	message := extractAPIErrorMessage(payload)
	if message == "" {
		message = payload
	}
	if message == "" {
		message = "unknown API error"
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Body:       payload,
	}
}

// extractAPIErrorMessage pulls a human-readable message out of the common
// OpenAI-compatible envelope {"error":{"message":"..."}} and its close
// variants.
func extractAPIErrorMessage(payload string) string {
	if payload == "" {
		return ""
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return ""
	}

	if rawErr, ok := decoded["error"]; ok {
		switch v := rawErr.(type) {
		case string:
			return strings.TrimSpace(v)
		case map[string]any:
			if message, ok := v["message"].(string); ok {
				return strings.TrimSpace(message)
			}
			if typ, ok := v["type"].(string); ok {
				return strings.TrimSpace(typ)
			}
		}
	}

	if message, ok := decoded["message"].(string); ok {
		return strings.TrimSpace(message)
	}

	return ""
}
