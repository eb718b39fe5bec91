package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrForbidden          = errors.New("invalid invite code")
	ErrConflict           = errors.New("username or email already registered")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrInvalidInput       = errors.New("invalid input")

	// Store errors.
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("user already exists")

	// Token codec errors. The service reports all of them as ErrUnauthorized.
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenMalformed        = errors.New("token is malformed")
)

// TooManyAttemptsError is returned when a rate limit window is full. It
// matches ErrTooManyAttempts under errors.Is.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *TooManyAttemptsError) Is(target error) bool {
	return target == ErrTooManyAttempts
}
