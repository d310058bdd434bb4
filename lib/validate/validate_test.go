package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	EventId string `json:"eventId" validate:"required"`
	Role    string `json:"role" validate:"omitempty,oneof=user admin security"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(&sample{EventId: "e1", Role: "admin"}))

	err := Struct(&sample{Role: "root"})
	require.Error(t, err)
	assert.Equal(t, "eventId required; role oneof", err.Error())
}

func TestStructRejectsNonStruct(t *testing.T) {
	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct("eventId"), "not a struct")
}
