package service

import "errors"

var (
	// ErrMissingInput is a precondition failure, reported before any work
	ErrMissingInput = errors.New("missing required input")
	// ErrUnsupportedProvider names a mailbox provider that is not configured
	ErrUnsupportedProvider = errors.New("unsupported mailbox provider")
	// ErrNotConnected means no credential is stored for (user, provider)
	ErrNotConnected = errors.New("mailbox not connected")
	// ErrTokenRefresh means the stored token expired and could not be refreshed
	ErrTokenRefresh = errors.New("token refresh failed")
	// ErrNotFound is returned for CRUD lookups of missing rows
	ErrNotFound = errors.New("not found")
	// ErrGeneration wraps text generator failures on user-facing generation
	ErrGeneration = errors.New("text generation failed")
)
