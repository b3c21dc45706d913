package auth

import (
	"fmt"
)

// ErrInvalidCredentials matches any InvalidCredentialsError via errors.Is.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// InvalidCredentialsError is returned when the signer is handed credential
// material it cannot sign with.
type InvalidCredentialsError struct {
	Reason string
	Err    error
}

func (e *InvalidCredentialsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid credentials: %s: %v", e.Reason, e.Err)
	}
	return "invalid credentials: " + e.Reason
}

func (e *InvalidCredentialsError) Unwrap() error {
	return e.Err
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
