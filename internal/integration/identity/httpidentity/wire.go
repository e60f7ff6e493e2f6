// Package httpidentity speaks the identity service's JSON API. It contains
// both the client used by the app and a handler that serves any auth.Provider
// over the same API.
package httpidentity

import (
	"errors"
	"net/http"

	"github.com/colonyops/scribe/internal/core/auth"
)

const (
	pathLookup   = "/v1/lookup"
	pathSignIn   = "/v1/sign_in"
	pathOAuth    = "/v1/oauth"
	pathSignUp   = "/v1/sign_up"
	pathCodes    = "/v1/codes"
	pathVerify   = "/v1/codes/verify"
	pathReset    = "/v1/password_reset"
	pathSessions = "/v1/sessions"
)

type emailRequest struct {
	Email string `json:"email"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Email   string       `json:"email"`
	Purpose auth.Purpose `json:"purpose"`
	Code    string       `json:"code,omitempty"`
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type lookupResponse struct {
	Factor auth.Factor `json:"factor"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusTable maps provider errors to HTTP statuses and wire codes. Order
// matters: the first match wins.
var statusTable = []struct {
	err    error
	status int
	code   string
}{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{auth.ErrAccountExists, http.StatusConflict, "account_exists"},
	{auth.ErrInvalidCode, http.StatusUnprocessableEntity, "invalid_code"},
	{auth.ErrCodeExhausted, http.StatusGone, "code_exhausted"},
	{auth.ErrOAuthDenied, http.StatusForbidden, "oauth_denied"},
	{auth.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{auth.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

func statusFor(err error) (int, string) {
	for _, row := range statusTable {
		if errors.Is(err, row.err) {
			return row.status, row.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func errorFor(status int, code string) error {
	if code == "unauthorized" {
		// the client itself was rejected, which is a deployment problem
		return auth.ErrUnavailable
	}
	for _, row := range statusTable {
		if row.code == code {
			return row.err
		}
	}
	for _, row := range statusTable {
		if row.status == status {
			return row.err
		}
	}
	if status >= http.StatusInternalServerError {
		return auth.ErrUnavailable
	}
	return nil
}
