package dbids

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	errwrap "github.com/pkg/errors"
)

// ErrUnrecognizedShape marks a response the tolerant decoders could not map
// to any known shape. Callers treat it as a decode failure, never as empty
// data.
var ErrUnrecognizedShape = errwrap.New("dbids: unrecognized response shape")

// APIError is a non-2xx backend response. Code and AttemptsLeft are only set
// when the backend supplied them (ACCOUNT_LOCKED, INVALID_CREDENTIALS).
type APIError struct {
	Status       int
	Code         string
	Message      string
	AttemptsLeft *int
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dbids: backend returned %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errwrap.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return false
}

func parseAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}

	var body struct {
		Code         string `json:"code"`
		Message      string `json:"message"`
		Err          string `json:"error"`
		AttemptsLeft *int   `json:"attemptsLeft"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Err
		}
		apiErr.AttemptsLeft = body.AttemptsLeft
	}
	return apiErr
}
