package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", NotFound("The specified event does not exist."))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "The specified event does not exist.", Message(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "Internal error", Message(errors.New("boom")))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Unauthenticated("no session"), http.StatusUnauthorized},
		{PermissionDenied("nope"), http.StatusForbidden},
		{InvalidArgument("missing eventId"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("terminal"), http.StatusConflict},
		{Internal("store down", errors.New("dial tcp")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("An error occurred while verifying the QR code", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
