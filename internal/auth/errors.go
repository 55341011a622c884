package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPendingApproval is returned when the credentials are correct but an admin has not approved the account yet.
	ErrPendingApproval = errors.New("your account is pending approval by an administrator")

	// ErrInvalidCode is returned when a TOTP or backup code does not verify.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrRegistrationDisabled is returned when the site admin has closed registration.
	ErrRegistrationDisabled = errors.New("registration is currently disabled")

	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")

	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrNotAwaitingTwoFactor is returned when a code is submitted without a pending login.
	ErrNotAwaitingTwoFactor = errors.New("no login is awaiting verification")

	ErrNotFound = errors.New("user not found")

	ErrForbidden = errors.New("you are not allowed to do that")
)

// ValidationError describes a rejected form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
