package investec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrMissingCredentials = errors.New("investec: client id, client secret and api key are required")
	ErrMissingAccountID   = errors.New("investec: account id is required")
	// ErrInvalidCredentials means the bank no longer accepts the stored
	// credentials and the user has to connect again.
	ErrInvalidCredentials = errors.New("investec: credentials rejected")
)

// APIError is returned for non-2xx responses that are not credential failures.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("investec: api error %d: %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	msg := http.StatusText(resp.StatusCode)

	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.ErrorDescription != "":
			msg = payload.ErrorDescription
		case payload.Error != "":
			msg = payload.Error
		}
	} else if len(body) > 0 {
		msg = string(body)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
