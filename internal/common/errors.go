// Package common defines sentinel errors shared by the repository, service
// and transport layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")

	// Service-level errors.
	ErrValidation          = errors.New("validation error")
	ErrPersistence         = errors.New("persistence error")
	ErrResolutionExhausted = errors.New("failed to create unique username")

	// Token errors. Never surfaced past the token service.
	ErrInvalidToken = errors.New("invalid token")
)
