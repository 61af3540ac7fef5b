package domain

import "errors"

// Storage-level conditions shared by the snapshot and document backends.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)

var (
	ErrUnauthenticated    = errors.New("sign in required")
	ErrForbidden          = errors.New("not enough rights")
	ErrProductUnavailable = errors.New("product not available")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)
