package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrInvalidFormat = errors.New("invalid registration format")
	ErrIDTaken       = errors.New("id already exists with different secret")
	ErrSecretTaken   = errors.New("secret already exists with different id")

	// Storage errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
