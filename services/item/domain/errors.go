package domain

import "errors"

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates an item with the same ID already exists.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrInvalidItem indicates the item violates domain constraints
	// (missing or malformed name or data).
	ErrInvalidItem = errors.New("invalid item")

	// ErrConfirmationRequired indicates a destructive bulk operation was
	// invoked without explicit confirmation. This is a safety gate, not a
	// transient fault; no mutation has occurred.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrStorageUnavailable indicates the backing store could not be
	// reached or the operation was aborted before completing.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
