package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike, so
	// responses cannot be used to probe for registered addresses.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the account is under a temporary lockout.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountNotActive indicates the account is pending, blocked without a
	// lock window, or deactivated.
	ErrAccountNotActive = errors.New("account is not active")

	// ErrEmailTaken indicates the invitation email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken indicates the activation or reset token is unknown or
	// already consumed.
	ErrInvalidToken = errors.New("invalid or already used token")
	// ErrExpiredToken indicates the token matched but its window has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrForbidden indicates the actor lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates the target account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidStatus indicates an unknown account status value.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrLastSuperadmin indicates the operation would leave the system with no
	// active superadmin.
	ErrLastSuperadmin = errors.New("cannot remove the last active superadmin")
)

// AuthenticationError decorates a login failure with the counters clients
// display: attempts left before lockout, or minutes until the lock expires.
// Status is set for not-active failures so the message can name the state.
type AuthenticationError struct {
	Err               error
	RemainingAttempts int
	RetryAfterMinutes int
	Status            string
}

func (e *AuthenticationError) Error() string { return e.Err.Error() }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// WeakPasswordError aggregates every policy rule the candidate failed.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password does not meet policy: %s", strings.Join(e.Reasons, "; "))
}

func weakPassword(errs []error) *WeakPasswordError {
	reasons := make([]string, 0, len(errs))
	for _, err := range errs {
		reasons = append(reasons, err.Error())
	}
	return &WeakPasswordError{Reasons: reasons}
}
