package client

import (
	"fmt"
	"net/http"
)

// maxBodySnippet bounds how much of a response body is kept in an error.
const maxBodySnippet = 512

// Sentinel errors for errors.Is.
var (
	ErrLoginFailed   = fmt.Errorf("login failed")
	ErrRequestFailed = fmt.Errorf("request failed")
)

// LoginFailedError means no credentials could be obtained: the login
// endpoint rejected the account (StatusCode set) or could not be reached
// (StatusCode 0, Err set).
type LoginFailedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *LoginFailedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("login failed (status %d): %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("login failed: %v", e.Err)
	}
	return "login failed"
}

func (e *LoginFailedError) Unwrap() error {
	return e.Err
}

func (e *LoginFailedError) Is(target error) bool {
	return target == ErrLoginFailed
}

// Unauthorized reports whether the service rejected the email/password.
func (e *LoginFailedError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// RequestFailedError means a signed resource request did not succeed: the
// endpoint answered with a non-2xx status (StatusCode set) or the
// transport failed before a response arrived (StatusCode 0, Err set).
type RequestFailedError struct {
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("request for endpoint %s failed (status %d): %s", e.Path, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("request for endpoint %s failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("request for endpoint %s failed", e.Path)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Temporary reports whether retrying the same request later may succeed.
func (e *RequestFailedError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "..."
}

func success(status int) bool {
	return status >= 200 && status < 300
}
