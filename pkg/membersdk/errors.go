package membersdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest   = "invalid_request"
	ErrorCodeInvalidEmail     = "invalid_email"
	ErrorCodeInvalidToken     = "invalid_token"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeUnknownSource    = "unknown_source"
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeServerError      = "server_error"
)

// APIError is an error response. Handlers write it, the client returns it.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON error response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required headers",
	}

	ErrInvalidEmail = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidEmail,
		Description: "a valid email address is required",
	}

	// ErrInvalidToken is the single answer for every failed redemption, so a
	// caller cannot tell a used link from an expired or unknown one.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidToken,
		Description: "this login link is invalid or has expired",
	}

	ErrInvalidSignature = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidSignature,
		Description: "webhook signature verification failed",
	}

	ErrUnknownSource = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnknownSource,
		Description: "webhook source is not recognised",
	}

	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "authentication required",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "not found",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewAPIError builds an APIError with a custom description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
