package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("security")
	assert.True(t, ok)
	assert.Equal(t, RoleSecurity, r)

	_, ok = ParseRole("superadmin")
	assert.False(t, ok)
}

func TestUserEffectiveRole(t *testing.T) {
	assert.Equal(t, RoleUser, (&User{}).EffectiveRole())
	assert.Equal(t, RoleUser, (&User{Role: "visitor"}).EffectiveRole())
	assert.Equal(t, RoleAdmin, (&User{Role: RoleAdmin}).EffectiveRole())
}

func TestEventMatchingGroups(t *testing.T) {
	e := &Event{PreApprovedGroups: []string{"staff", "press"}}

	assert.Equal(t, []string{"press"}, e.MatchingGroups([]string{"press", "vip"}))
	assert.Empty(t, e.MatchingGroups([]string{"vip"}))
}

func TestApprovalStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusDenied.IsTerminal())
}

func TestCallerIsZero(t *testing.T) {
	var c *Caller
	assert.True(t, c.IsZero())
	assert.True(t, (&Caller{Role: RoleAdmin}).IsZero())
	assert.False(t, (&Caller{UserId: "u1"}).IsZero())
}
