package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	t.Run("plain domain error", func(t *testing.T) {
		err := New(CodeInsufficientFunds, "custody cannot cover release")
		assert.Equal(t, CodeInsufficientFunds, CodeOf(err))
	})

	t.Run("wrapped domain error", func(t *testing.T) {
		inner := New(CodeNotFound, "no such entity")
		outer := fmt.Errorf("approve request: %w", inner)
		assert.Equal(t, CodeNotFound, CodeOf(outer))
	})

	t.Run("non-domain error falls back to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestIs(t *testing.T) {
	err := Wrap(errors.New("driver error"), CodeInternal, "list entities")
	assert.True(t, Is(err, CodeInternal))
	assert.False(t, Is(err, CodeNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "append record")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "append record")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeNotFound:          http.StatusNotFound,
		CodeAlreadyRegistered: http.StatusConflict,
		CodeAlreadyInactive:   http.StatusConflict,
		CodeNotPending:        http.StatusConflict,
		CodeInactive:          http.StatusConflict,
		CodeInsufficientFunds: http.StatusUnprocessableEntity,
		CodeInvalidAmount:     http.StatusBadRequest,
		CodeInvalidRange:      http.StatusBadRequest,
		CodeOverflow:          http.StatusBadRequest,
		CodeBadRequest:        http.StatusBadRequest,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
