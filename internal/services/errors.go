package services

import "errors"

var (
	// ErrInvalidCredentials is returned for any failed login, whichever factor was wrong
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrWrongPassword is returned when the current password does not match on rotation
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrValidation wraps every input validation failure
	ErrValidation = errors.New("validation failed")
)
