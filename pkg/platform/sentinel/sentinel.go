package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain error codes.
//
// These represent factual states about stored resources, not validation
// failures:
// - ErrNotFound: row does not exist in the store
// - ErrConflict: insert collided with an existing row
// - ErrInvalidState: conditional update found the row in a different state
//
// For validation errors (bad input, sign constraints), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
