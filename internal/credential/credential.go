// Package credential encodes the (user, event) pair carried in a QR code.
//
// Decoding only establishes shape. Whether the pair is a live registration is
// decided afterwards by the check-in verifier against the roster.
package credential

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFormat is returned for any token that cannot be decoded into a
// complete credential.
var ErrFormat = errors.New("invalid credential format")

type Credential struct {
	UserId  string `json:"userId"`
	EventId string `json:"eventId"`
}

func (c Credential) check() error {
	if c.UserId == "" || c.EventId == "" {
		return fmt.Errorf("%w: missing required data", ErrFormat)
	}
	return nil
}

type Codec interface {
	Encode(c Credential) (string, error)
	Decode(token string) (Credential, error)
}

// Auto issues with the primary codec and accepts both token shapes on decode.
// Signed tokens are recognised by their three dot-separated segments, which
// never occur in standard base64.
type Auto struct {
	Primary     Codec
	Signed      *Signed
	AcceptPlain bool
}

func (a Auto) Encode(c Credential) (string, error) {
	if a.Primary != nil {
		return a.Primary.Encode(c)
	}
	if a.Signed != nil {
		return a.Signed.Encode(c)
	}
	return Plain{}.Encode(c)
}

func (a Auto) Decode(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") == 2 {
		if a.Signed == nil {
			return Credential{}, fmt.Errorf("%w: signed credentials not accepted", ErrFormat)
		}
		return a.Signed.Decode(token)
	}
	if !a.AcceptPlain {
		return Credential{}, fmt.Errorf("%w: unsigned credentials not accepted", ErrFormat)
	}
	return Plain{}.Decode(token)
}
