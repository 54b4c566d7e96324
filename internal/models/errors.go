package models

import "errors"

var (
	// ErrUserNotFound is returned when no user row backs the requested identity
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateIdentity is returned when the username or email is already taken
	ErrDuplicateIdentity = errors.New("username or email already exists")
)
