package domain

import "errors"

// Authentication errors
var (
	// ErrUnauthorized is returned when the backend rejected the session and
	// the refresh endpoint could not renew it.
	ErrUnauthorized        = errors.New("Unauthorized")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionInitializing = errors.New("session is still initializing")
)

// Authorization errors
var (
	ErrForbidden   = errors.New("insufficient role permissions")
	ErrUnknownRole = errors.New("unknown role")
)

// Input errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrBranchRequired = errors.New("branch is required")
)

// Visitor errors
var (
	ErrVisitorNotFound = errors.New("visitor not found")
)
