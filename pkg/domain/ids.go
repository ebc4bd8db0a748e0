package domain

import (
	"strings"

	dErrors "fiscus/pkg/domain-errors"
)

// EntityID identifies a registered spending entity. The value is opaque to the
// registry (a public key, an account identifier) and globally unique.
//
// Usage: construct via ParseEntityID at trust boundaries; direct casting
// bypasses validation.
type EntityID string

// maxEntityIDLen bounds identifier size so stores can index the column.
const maxEntityIDLen = 128

// ParseEntityID constructs an EntityID from external input.
//
// Errors: returns CodeBadRequest when the value is empty, oversized, or
// contains whitespace; no other errors are expected.
func ParseEntityID(s string) (EntityID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "entity id cannot be empty")
	}
	if len(s) > maxEntityIDLen {
		return "", dErrors.New(dErrors.CodeBadRequest, "entity id too long")
	}
	if strings.ContainsAny(s, " \t\n\r") {
		return "", dErrors.New(dErrors.CodeBadRequest, "entity id cannot contain whitespace")
	}
	return EntityID(s), nil
}

func (id EntityID) String() string { return string(id) }

// Caller identifies the actor behind a registry call, as established by the
// transport's authentication layer. The authority compares it against its
// configured subject on every mutating operation.
type Caller string

func (c Caller) String() string { return string(c) }
