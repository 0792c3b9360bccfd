package services

import "errors"

// Error taxonomy for the verification core. The transport layer maps these
// onto HTTP status codes; nothing in this package is fatal to the process.
var (
	// ErrNotFound covers missing and soft-deleted resources alike
	ErrNotFound = errors.New("resource not found")
	// ErrPermissionDenied means no grant exists or its access level is too low
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidArgument means a required field is missing or malformed
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict means a concurrent update tripped the expected-state guard
	ErrConflict = errors.New("conflicting concurrent update")
)
