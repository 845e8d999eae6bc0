package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/you/retaildash/domain"
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Is lets a terminal 401 match domain.ErrUnauthorized
func (e *APIError) Is(target error) bool {
	return target == domain.ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// newAPIError takes the message from the body's "message" field, falling
// back to the status text. Validation backends send a list of messages.
func newAPIError(status int, body []byte) *APIError {
	msg := http.StatusText(status)
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		var single string
		var many []string
		switch {
		case json.Unmarshal(payload.Message, &single) == nil && single != "":
			msg = single
		case json.Unmarshal(payload.Message, &many) == nil && len(many) > 0:
			msg = strings.Join(many, ", ")
		}
	}
	return &APIError{Status: status, Message: msg}
}
