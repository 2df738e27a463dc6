package services

import "errors"

// Errors returned by AuthService. The transport maps each one to a fixed
// public fault; internal causes are only logged.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrProfileCreationFailed = errors.New("failed to create user profile")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrRegistrationFailed    = errors.New("registration failed")
	ErrLoginFailed           = errors.New("login failed")
)
