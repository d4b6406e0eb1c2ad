package hosted

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-authgate"
	goerrors "github.com/goliatone/go-errors"
)

type apiError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
	ErrorDesc string `json:"error_description"`
	ErrorStr  string `json:"error"`
}

func (e apiError) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	return e.ErrorStr
}

func (e apiError) message() string {
	for _, m := range []string{e.Msg, e.Message, e.ErrorDesc, e.ErrorStr} {
		if m != "" {
			return m
		}
	}
	return "provider request failed"
}

func parseAPIError(body []byte) apiError {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		apiErr.Msg = strings.TrimSpace(string(body))
	}
	return apiErr
}

// mapTransportError classifies failures where no response arrived at all.
// Timeouts and connection errors are transient; callers must not treat them
// as unauthenticated.
func mapTransportError(operation string, err error) error {
	if err == nil {
		return nil
	}

	richErr := authgate.ErrProviderUnavailable.Clone()
	richErr.Source = err
	return richErr.WithMetadata(map[string]any{
		"operation": operation,
		"cause":     err.Error(),
	})
}

// mapAPIError translates a provider error response into the package
// taxonomy. Anything unrecognized maps to the unknown bucket with the raw
// detail kept server-side.
func mapAPIError(operation string, status int, body []byte) error {
	apiErr := parseAPIError(body)

	var base *goerrors.Error

	switch apiErr.code() {
	case "invalid_credentials", "invalid_grant":
		base = authgate.ErrInvalidCredentials
	case "user_already_exists", "email_exists":
		base = authgate.ErrAlreadyRegistered
	case "email_not_confirmed":
		base = authgate.ErrUnverifiedEmail
	case "otp_expired":
		base = authgate.ErrTokenExpired
	case "bad_jwt", "refresh_token_not_found", "refresh_token_already_used":
		base = authgate.ErrTokenMalformed
	}

	if base == nil {
		switch {
		case status >= http.StatusInternalServerError, status == http.StatusTooManyRequests:
			base = authgate.ErrProviderUnavailable
		case status == http.StatusUnauthorized:
			base = authgate.ErrInvalidCredentials
		default:
			base = authgate.ErrUnknownProvider
		}
	}

	richErr := base.Clone()
	richErr.Source = goerrors.New(apiErr.message(), goerrors.CategoryOperation)

	return richErr.WithMetadata(map[string]any{
		"operation":  operation,
		"status":     status,
		"error_code": apiErr.code(),
	})
}
