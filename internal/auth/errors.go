package auth

import "errors"

var (
	ErrInvalidNumber         = errors.New("invalid mobile number")
	ErrInvalidCode           = errors.New("invalid verification code")
	ErrCodeExpired           = errors.New("verification code expired")
	ErrProvider              = errors.New("sms provider error")
	ErrProviderNotConfigured = errors.New("sms provider not configured")

	errNoCode = errors.New("no pending code")
)
