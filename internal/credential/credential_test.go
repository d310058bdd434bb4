package credential

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const idPattern = `[A-Za-z0-9_-]{1,28}`

func testSigned(t *testing.T) *Signed {
	t.Helper()
	s, err := NewSigned("k1", []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	return s
}

func TestPlainMatchesLegacyWireFormat(t *testing.T) {
	token, err := Plain{}.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"U1","eventId":"E1"}`, string(raw))
}

func TestPlainRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := Credential{
			UserId:  rapid.StringMatching(idPattern).Draw(t, "user"),
			EventId: rapid.StringMatching(idPattern).Draw(t, "event"),
		}
		token, err := Plain{}.Encode(c)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Plain{}.Decode(token)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != c {
			t.Fatalf("round trip: got %+v want %+v", got, c)
		}
	})
}

func TestSignedRoundTrip(t *testing.T) {
	s := testSigned(t)
	rapid.Check(t, func(rt *rapid.T) {
		c := Credential{
			UserId:  rapid.StringMatching(idPattern).Draw(rt, "user"),
			EventId: rapid.StringMatching(idPattern).Draw(rt, "event"),
		}
		token, err := s.Encode(c)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		got, err := s.Decode(token)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if got != c {
			rt.Fatalf("round trip: got %+v want %+v", got, c)
		}
	})
}

func TestDecodeGarbageNeverPanics(t *testing.T) {
	codec := Auto{Signed: testSigned(t), AcceptPlain: true}
	rapid.Check(t, func(t *rapid.T) {
		token := rapid.String().Draw(t, "token")
		c, err := codec.Decode(token)
		if err != nil {
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if c.UserId == "" || c.EventId == "" {
			t.Fatalf("decoded incomplete credential %+v", c)
		}
	})
}

func TestPlainDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"missing user", base64.StdEncoding.EncodeToString([]byte(`{"eventId":"E1"}`))},
		{"missing event", base64.StdEncoding.EncodeToString([]byte(`{"userId":"U1"}`))},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plain{}.Decode(tt.token)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestEncodeRejectsIncompletePair(t *testing.T) {
	_, err := Plain{}.Encode(Credential{UserId: "U1"})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = testSigned(t).Encode(Credential{EventId: "E1"})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSignedRejectsTampering(t *testing.T) {
	s := testSigned(t)
	token, err := s.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged, err := Plain{}.Encode(Credential{UserId: "U2", EventId: "E1"})
	require.NoError(t, err)
	parts[1] = strings.TrimRight(forged, "=")

	_, err = s.Decode(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSignedRejectsExpired(t *testing.T) {
	s := testSigned(t)
	issued := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return issued }
	token, err := s.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)

	s.Now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = s.Decode(token)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSignedKeyRotation(t *testing.T) {
	old := testSigned(t)
	token, err := old.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)

	rotated, err := NewSigned("k2", []byte("fedcba9876543210fedcba9876543210"), time.Hour)
	require.NoError(t, err)
	rotated.Keys["k1"] = old.Keys["k1"]

	got, err := rotated.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", got.UserId)

	rotated.Keys = map[string][]byte{"k2": rotated.Keys["k2"]}
	_, err = rotated.Decode(token)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSignedRejectsOtherAlgorithms(t *testing.T) {
	s := testSigned(t)
	claims := signedClaims{EventId: "E1", Version: Version}
	claims.Subject = "U1"
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token.Header["kid"] = "k1"
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Decode(raw)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestAutoDecodesBothShapes(t *testing.T) {
	s := testSigned(t)
	codec := Auto{Signed: s, AcceptPlain: true}

	signed, err := codec.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(signed, "."))

	plain, err := Plain{}.Encode(Credential{UserId: "U1", EventId: "E1"})
	require.NoError(t, err)

	for _, token := range []string{signed, plain} {
		got, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, Credential{UserId: "U1", EventId: "E1"}, got)
	}

	strict := Auto{Signed: s}
	_, err = strict.Decode(plain)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestNewSignedRejectsShortSecret(t *testing.T) {
	_, err := NewSigned("k1", []byte("short"), 0)
	assert.Error(t, err)
}
