package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, []string{}))
	assert.True(t, Equal([]string{"g1", "g2"}, []string{"g2", "g1"}))
	assert.True(t, Equal([]string{"g1", "g1"}, []string{"g1"}))
	assert.False(t, Equal([]string{"g1"}, []string{"g1", "g2"}))
	assert.False(t, Equal([]string{"g1", "g3"}, []string{"g1", "g2"}))
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, Intersect([]string{"a", "b", "c", "b"}, []string{"c", "b"}))
	assert.Empty(t, Intersect([]string{"a"}, nil))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"u1", "u2"}, Unique([]string{"u1", "u2", "u1"}))
}
