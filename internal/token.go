package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionToken is the opaque value delivered to clients in the session
// cookie. 128 bits of crypto/rand output, compact base64url on the wire.
type SessionToken [16]byte

// NewSessionToken returns a fresh random token.
func NewSessionToken() (SessionToken, error) {
	var t SessionToken
	_, err := rand.Read(t[:])
	return t, err
}

func (t SessionToken) String() string {
	return base64.RawURLEncoding.EncodeToString(t[:])
}

// ParseSessionToken rejects values that cannot be a token before any store
// lookup happens.
func ParseSessionToken(s string) (SessionToken, error) {
	var t SessionToken

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return t, err
	}
	if len(raw) != len(t) {
		return t, errors.New("invalid session token size")
	}

	copy(t[:], raw)
	return t, nil
}
