package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"

	"github.com/systmms/blueconnect/internal/secretsource"
	"github.com/systmms/blueconnect/pkg/auth"
	"github.com/systmms/blueconnect/pkg/client"
	"github.com/systmms/blueconnect/pkg/decode"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// Explain turns errors from the API client and its collaborators into a
// UserError with a suggestion. Errors it does not recognize, and errors
// that are already user-facing, are returned unchanged.
func Explain(err error) error {
	if err == nil {
		return nil
	}

	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return err
	}

	var lf *client.LoginFailedError
	if errors.As(err, &lf) {
		switch {
		case lf.Unauthorized():
			return UserError{
				Message:    "Blue Connect rejected the email or password",
				Details:    lf.Body,
				Suggestion: "Check the account credentials; they are the ones used in the Blue Connect app",
				Err:        err,
			}
		case lf.StatusCode > 0:
			return UserError{
				Message:    fmt.Sprintf("Blue Connect login failed with status %d", lf.StatusCode),
				Details:    lf.Body,
				Suggestion: "The service may be degraded. Wait a moment and try again",
				Err:        err,
			}
		default:
			return UserError{
				Message:    "Could not log in to Blue Connect",
				Details:    errString(lf.Err),
				Suggestion: networkSuggestion(lf.Err),
				Err:        err,
			}
		}
	}

	var rf *client.RequestFailedError
	if errors.As(err, &rf) {
		ue := UserError{
			Message: fmt.Sprintf("Request for %s failed", rf.Path),
			Details: rf.Body,
			Err:     err,
		}
		switch {
		case rf.StatusCode == 0:
			ue.Details = errString(rf.Err)
			ue.Suggestion = networkSuggestion(rf.Err)
		case rf.StatusCode == 403:
			ue.Suggestion = "The request signature was refused. Check that the system clock is correct"
		case rf.StatusCode == 404:
			ue.Suggestion = "Verify the pool id or device serial with 'blueconnect pools' and 'blueconnect devices'"
		case rf.Temporary():
			ue.Suggestion = "The service may be degraded. Wait a moment and try again"
		}
		return ue
	}

	var de *decode.DecodeError
	if errors.As(err, &de) {
		return UserError{
			Message:    "Unexpected response from Blue Connect",
			Details:    err.Error(),
			Suggestion: "The API may have changed. Run with --debug and report the response shape",
			Err:        err,
		}
	}

	if errors.Is(err, auth.ErrInvalidCredentials) {
		return UserError{
			Message:    "The login response did not contain usable credentials",
			Suggestion: "Run with --debug to inspect the login exchange",
			Err:        err,
		}
	}

	var se *secretsource.SourceError
	if errors.As(err, &se) {
		return UserError{
			Message:    fmt.Sprintf("Could not read the account password from %s", se.Source),
			Details:    errString(se.Err),
			Suggestion: se.Suggestion,
			Err:        err,
		}
	}

	return simplify(err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func networkSuggestion(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Check your network connection or raise api.timeout_ms"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and api.base_url"
	}
	if strings.Contains(errStr, "certificate") {
		return "TLS verification failed. Set api.insecure_skip_verify or provide api.ca_cert"
	}
	return ""
}

// Temporary reports whether repeating the failed operation later may
// succeed. Rejected passwords, bad pool ids and undecodable payloads are
// permanent.
func Temporary(err error) bool {
	var rf *client.RequestFailedError
	if errors.As(err, &rf) {
		return rf.Temporary()
	}
	var lf *client.LoginFailedError
	if errors.As(err, &lf) {
		return lf.StatusCode == 0 || lf.StatusCode == http.StatusTooManyRequests || lf.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// simplify maps common filesystem failures to a UserError.
func simplify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check the permissions of the configuration and CA files",
			Err:        err,
		}
	case errors.Is(err, fs.ErrNotExist):
		return UserError{
			Message:    "File not found",
			Suggestion: "Verify the path passed to --config or api.ca_cert",
			Err:        err,
		}
	}
	return err
}
