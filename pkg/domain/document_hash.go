package domain

import (
	"strings"

	dErrors "fiscus/pkg/domain-errors"
)

// DocumentHash is an opaque fixed-length digest identifying the supporting
// documentation behind a spending record or fund request. The registry never
// dereferences it; document storage belongs to the presentation layer.
//
// Canonical form is 64 lowercase hex characters (a 32-byte digest). Parse
// accepts an optional 0x prefix and mixed case.
type DocumentHash string

const documentHashLen = 64

// ParseDocumentHash constructs a DocumentHash from external input.
//
// Errors: returns CodeBadRequest when the value is not a 32-byte hex digest.
func ParseDocumentHash(s string) (DocumentHash, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != documentHashLen {
		return "", dErrors.New(dErrors.CodeBadRequest, "document hash must be a 32-byte hex digest")
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return "", dErrors.New(dErrors.CodeBadRequest, "document hash must be hex encoded")
		}
	}
	return DocumentHash(strings.ToLower(s)), nil
}

func (h DocumentHash) String() string { return string(h) }
