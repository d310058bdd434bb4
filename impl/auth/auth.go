// Package auth turns a session bearer token issued by the identity provider
// into the Caller the services authorize against.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"admitgate/entity"
	"admitgate/lib/sl"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret     = errors.New("session secret not configured")
	ErrInvalidToken = errors.New("invalid session token")
)

type UserSource interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

// SessionClaims are the claims set by the identity provider. Admin and
// Security are the custom boolean claims; Role is accepted as well.
type SessionClaims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
	Security bool   `json:"security,omitempty"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret       []byte
	users        UserSource
	roleFromUser bool
	now          func() time.Time
	log          *slog.Logger
}

// New creates the authenticator. users may be nil; it is only consulted
// when roleFromUser is set and the token carries no elevated role.
func New(secret string, users UserSource, roleFromUser bool, log *slog.Logger) *Auth {
	return &Auth{
		secret:       []byte(secret),
		users:        users,
		roleFromUser: roleFromUser,
		now:          time.Now,
		log:          log.With(sl.Module("impl.auth")),
	}
}

func (a *Auth) CallerByToken(ctx context.Context, token string) (*entity.Caller, error) {
	if len(a.secret) == 0 {
		return nil, ErrNoSecret
	}
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	caller := &entity.Caller{
		UserId: claims.Subject,
		Email:  claims.Email,
		Role:   roleOf(claims),
	}
	if caller.Role == entity.RoleUser && a.roleFromUser && a.users != nil {
		caller.Role = a.storedRole(ctx, caller.UserId)
	}
	return caller, nil
}

// storedRole only elevates: a user document can grant admin or security
// but a lookup failure leaves the caller a plain user.
func (a *Auth) storedRole(ctx context.Context, userId string) entity.Role {
	user, err := a.users.GetUser(ctx, userId)
	if err != nil {
		a.log.Warn("load user role", sl.User(userId), sl.Err(err))
		return entity.RoleUser
	}
	if user == nil {
		return entity.RoleUser
	}
	if role := user.EffectiveRole(); role.IsElevated() {
		return role
	}
	return entity.RoleUser
}

func roleOf(c *SessionClaims) entity.Role {
	switch {
	case c.Admin:
		return entity.RoleAdmin
	case c.Security:
		return entity.RoleSecurity
	}
	if role, ok := entity.ParseRole(c.Role); ok {
		return role
	}
	return entity.RoleUser
}

// Sign issues a session token with the same secret. The identity provider
// does this in production; tests and local tooling use it directly.
func (a *Auth) Sign(claims SessionClaims, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrNoSecret
	}
	now := a.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
