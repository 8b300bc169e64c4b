package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the order core and the HTTP layer. Handlers map
// them to status codes with errors.Is, anything else becomes a 500.
var (
	// Authentication
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is deactivated")

	// Authorization
	ErrForbidden = errors.New("operation not permitted")

	// Lookup
	ErrNotFound      = errors.New("not found")
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)

	// Input and lifecycle
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid order state")
	ErrConflict     = errors.New("already exists")
)
