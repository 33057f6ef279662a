package errors

import (
	"errors"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrEmailAlreadyInUse  = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrOtpExpired         = errors.New("OTP expired or not found")
	ErrOtpIncorrect       = errors.New("incorrect OTP")
	ErrTooManyAttempts    = errors.New("too many attempts, try later")
	ErrRateLimited        = errors.New("too many requests")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingToken       = errors.New("authorization token missing")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("service temporarily unavailable")
)
