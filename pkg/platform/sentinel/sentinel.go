package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
//   - ErrNotFound: the record does not exist
//   - ErrConflict: a uniqueness or occupancy constraint would be broken
//   - ErrAlreadyUsed: the key is taken (names, emails)
//   - ErrLocked: another writer holds the lock for the resource
//   - ErrUnavailable: a backing service is down or the circuit is open
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAlreadyUsed = errors.New("already used")
	ErrLocked      = errors.New("locked")
	ErrUnavailable = errors.New("unavailable")
)
