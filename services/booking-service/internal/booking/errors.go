package booking

import "errors"

var (
	// ErrInvalidRequest means a required input was missing or malformed.
	// Raised before any I/O; a caller bug, not worth retrying.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStoreData means the store's hours could not be loaded: the store
	// exists upstream but its configuration didn't resolve. Distinct from a
	// store that is simply closed on the requested day.
	ErrStoreData = errors.New("store hours lookup failed")

	// ErrServicesNotFound means at least one requested service id did not
	// resolve in the directory.
	ErrServicesNotFound = errors.New("services not found")

	// ErrSlotTaken means a concurrent booking won the slot first.
	ErrSlotTaken = errors.New("time slot already booked")
)
