package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fiscus/pkg/domain-errors"
)

func TestParseEntityID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEntityID("")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects oversized identifier", func(t *testing.T) {
		_, err := ParseEntityID(strings.Repeat("a", 129))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects whitespace", func(t *testing.T) {
		_, err := ParseEntityID("ministry of health")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts opaque identifiers", func(t *testing.T) {
		for _, raw := range []string{
			"0x5FbDB2315678afecb367f032d93F642f64180aa3",
			"ministry-of-health",
			"GOV:HEALTH:001",
		} {
			id, err := ParseEntityID(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, raw, id.String())
		}
	})
}

func TestParseDocumentHash(t *testing.T) {
	digest := strings.Repeat("ab", 32)

	t.Run("accepts canonical form", func(t *testing.T) {
		h, err := ParseDocumentHash(digest)
		require.NoError(t, err)
		assert.Equal(t, digest, h.String())
	})

	t.Run("strips 0x prefix and lowercases", func(t *testing.T) {
		h, err := ParseDocumentHash("0x" + strings.ToUpper(digest))
		require.NoError(t, err)
		assert.Equal(t, digest, h.String())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseDocumentHash("abcd")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := ParseDocumentHash(strings.Repeat("zz", 32))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})
}
