package application

import (
	"errors"
	"fmt"
	"time"

	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrDuplicateUsername     = repo.ErrDuplicateUsername
	ErrDuplicateEmail        = repo.ErrDuplicateEmail
	ErrDuplicatePhone        = repo.ErrDuplicatePhone
	ErrUserNotFound          = errors.New("user not found")
	ErrUnauthorized          = errors.New("incorrect current password")
	ErrInvalidCredentials    = errors.New("password does not match")
	ErrAccountLocked         = errors.New("account is locked")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrMailDeliveryFailed    = errors.New("failed to send reset email")
	ErrInternal              = errors.New("internal error")
)

// ValidationError reports malformed, missing or policy-violating input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// LockedError is returned while the login throttle holds an account locked.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	secs := int(e.Remaining / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("Account is locked. Please try again later after %d minutes and %d seconds.", secs/60, secs%60)
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
