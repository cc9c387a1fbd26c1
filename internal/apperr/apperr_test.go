package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("Missing required fields"), http.StatusBadRequest},
		{"decode", Decode("invalid image data", errors.New("bad base64")), http.StatusBadRequest},
		{"unavailable", Unavailable("storage is not configured", nil), http.StatusServiceUnavailable},
		{"storage", Storage("failed to save drawing", errors.New("disk full")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", Validation("x")), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestIsValidationIncludesDecode(t *testing.T) {
	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsValidation(Decode("x", nil)))
	assert.False(t, IsValidation(Storage("x", nil)))
	assert.False(t, IsValidation(errors.New("x")))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Missing required fields", PublicMessage(Validation("Missing required fields")))
	assert.Equal(t, "failed to save drawing: disk full", PublicMessage(Storage("failed to save drawing", errors.New("disk full"))))
	assert.Equal(t, "boom", PublicMessage(errors.New("boom")))

	cause := errors.New("cause")
	err := Storage("msg", cause)
	assert.ErrorIs(t, err, cause)
}
