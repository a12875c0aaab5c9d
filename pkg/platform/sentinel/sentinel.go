package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services and the recovery layer can classify failures.
//
// These represent factual states about resources:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists, or a unique key was violated
// - ErrInvalidState: entity or payload in the wrong state for the requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For payload validation failures use models.ValidationError, which unwraps to
// ErrInvalidState.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
