package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindInvalidState, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFor(tt.kind))
		})
	}
}

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	base := Conflict("review already exists")
	wrapped := fmt.Errorf("submit: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestError_Message(t *testing.T) {
	err := NotFound("booking")
	assert.Equal(t, "NOT_FOUND: booking not found", err.Error())

	cause := errors.New("connection refused")
	internal := Internal(cause, "failed to load booking")
	assert.Contains(t, internal.Error(), "connection refused")
	assert.ErrorIs(t, internal, cause)
}
