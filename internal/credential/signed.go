package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Version is written to every signed credential so the format can rotate.
const Version = 1

type signedClaims struct {
	EventId string `json:"evt"`
	Version int    `json:"ver"`
	jwt.RegisteredClaims
}

// Signed is an HS256 JWT with the user in "sub" and the event in "evt".
// Keys are looked up by the "kid" header so older keys can keep verifying
// while new credentials use KeyId.
type Signed struct {
	KeyId string
	Keys  map[string][]byte
	TTL   time.Duration
	Now   func() time.Time
}

func NewSigned(keyId string, secret []byte, ttl time.Duration) (*Signed, error) {
	if len(secret) < 16 {
		return nil, errors.New("credential secret must be at least 16 bytes")
	}
	if keyId == "" {
		keyId = "k1"
	}
	return &Signed{
		KeyId: keyId,
		Keys:  map[string][]byte{keyId: secret},
		TTL:   ttl,
		Now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Signed) Encode(c Credential) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	key, ok := s.Keys[s.KeyId]
	if !ok {
		return "", fmt.Errorf("signing key %q not configured", s.KeyId)
	}
	now := s.Now()
	claims := signedClaims{
		EventId: c.EventId,
		Version: Version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  c.UserId,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.TTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = s.KeyId
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

func (s *Signed) Decode(token string) (Credential, error) {
	var claims signedClaims
	_, err := jwt.ParseWithClaims(token, &claims, s.keyFor,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if claims.Version != Version {
		return Credential{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, claims.Version)
	}
	c := Credential{UserId: claims.Subject, EventId: claims.EventId}
	if err = c.check(); err != nil {
		return Credential{}, err
	}
	return c, nil
}

func (s *Signed) keyFor(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	key, ok := s.Keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}
