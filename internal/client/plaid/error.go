package plaid

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	go_json "github.com/goccy/go-json"
)

type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrorTypeInvalidInput   ErrorType = "INVALID_INPUT"
	ErrorTypeRateLimit      ErrorType = "RATE_LIMIT_EXCEEDED"
	ErrorTypeAPI            ErrorType = "API_ERROR"
	ErrorTypeItem           ErrorType = "ITEM_ERROR"
	ErrorTypeInstitution    ErrorType = "INSTITUTION_ERROR"
)

// Error is the provider's error object, both as an API response and as the
// "error" field of ITEM webhooks.
type Error struct {
	StatusCode     int       `json:"status,omitempty"`
	ErrorType      ErrorType `json:"error_type"`
	ErrorCode      string    `json:"error_code"`
	ErrorMessage   string    `json:"error_message"`
	DisplayMessage string    `json:"display_message,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("plaid api: %d %s %s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			StatusCode:   resp.StatusCode,
			ErrorType:    ErrorTypeAPI,
			ErrorMessage: resp.Status,
		}
	}

	var apiErr Error
	if err := go_json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorCode == "" {
		return &Error{
			StatusCode:   resp.StatusCode,
			ErrorType:    ErrorTypeAPI,
			ErrorMessage: string(body),
		}
	}

	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}
