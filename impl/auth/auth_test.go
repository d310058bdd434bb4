package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"admitgate/entity"
	"admitgate/internal/database/memdb"
	"admitgate/lib/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "session-secret-for-tests"

func subject(id string) SessionClaims {
	return SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: id}}
}

func TestCallerFromClaims(t *testing.T) {
	a := New(secret, nil, false, logger.Discard())
	tests := []struct {
		name   string
		claims SessionClaims
		role   entity.Role
	}{
		{"plain user", subject("U1"), entity.RoleUser},
		{"admin claim", SessionClaims{Admin: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"}}, entity.RoleAdmin},
		{"security claim", SessionClaims{Security: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"}}, entity.RoleSecurity},
		{"admin wins", SessionClaims{Admin: true, Security: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"}}, entity.RoleAdmin},
		{"role claim", SessionClaims{Role: "security", RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"}}, entity.RoleSecurity},
		{"unknown role", SessionClaims{Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"}}, entity.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := a.Sign(tt.claims, time.Hour)
			require.NoError(t, err)
			caller, err := a.CallerByToken(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, "U1", caller.UserId)
			assert.Equal(t, tt.role, caller.Role)
		})
	}
}

func TestRejectsBadTokens(t *testing.T) {
	a := New(secret, nil, false, logger.Discard())
	other := New("another-secret-entirely", nil, false, logger.Discard())

	forged, err := other.Sign(subject("U1"), time.Hour)
	require.NoError(t, err)
	expired, err := a.Sign(subject("U1"), -time.Minute)
	require.NoError(t, err)
	noSubject, err := a.Sign(SessionClaims{}, time.Hour)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, subject("U1")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"forged":     forged,
		"expired":    expired,
		"no subject": noSubject,
		"alg none":   unsigned,
		"garbage":    "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.CallerByToken(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNoSecret(t *testing.T) {
	a := New("", nil, false, logger.Discard())
	_, err := a.CallerByToken(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestStoredRoleOnlyElevates(t *testing.T) {
	db := memdb.New()
	db.PutUser(entity.User{Id: "S1", Role: entity.RoleSecurity})
	db.PutUser(entity.User{Id: "U1", Role: entity.RoleUser})
	a := New(secret, db, true, logger.Discard())

	token, _ := a.Sign(subject("S1"), time.Hour)
	caller, err := a.CallerByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSecurity, caller.Role)

	token, _ = a.Sign(subject("U1"), time.Hour)
	caller, err = a.CallerByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, caller.Role)

	token, _ = a.Sign(subject("NOBODY"), time.Hour)
	caller, err = a.CallerByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, caller.Role)

	db.FailOn("GetUser", errors.New("down"))
	token, _ = a.Sign(subject("S1"), time.Hour)
	caller, err = a.CallerByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, caller.Role)
}

func TestStoredRoleDisabled(t *testing.T) {
	db := memdb.New()
	db.PutUser(entity.User{Id: "S1", Role: entity.RoleSecurity})
	a := New(secret, db, false, logger.Discard())

	token, _ := a.Sign(subject("S1"), time.Hour)
	caller, err := a.CallerByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, caller.Role)
	assert.Zero(t, db.Calls("GetUser"))
}
