package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Plain is base64 over JSON. It gives no confidentiality and no integrity;
// anyone can mint a token for any pair.
type Plain struct{}

func (Plain) Encode(c Credential) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal credential: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (Plain) Decode(token string) (Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	var c Credential
	if err = json.Unmarshal(raw, &c); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err = c.check(); err != nil {
		return Credential{}, err
	}
	return c, nil
}
