package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Content errors
	ErrPostNotFound      = errors.New("post not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrPlacementNotFound = errors.New("module placement not found")
	ErrRevisionNotFound  = errors.New("revision not found")

	// Staging errors
	ErrInvalidTier = errors.New("invalid tier")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidFieldPath = errors.New("invalid field path")
)
