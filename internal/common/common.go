// Package common contains shared constants, sentinel errors and small
// helpers used across the MediaVault client and server.
package common

import (
	"crypto/rand"
	"encoding/hex"
)

// AccessTokenHeaderName is the HTTP header carrying the access token on
// outbound requests.
const AccessTokenHeaderName = "Authorization"

// MakeRandHexString generates a random hexadecimal string from size random
// bytes (so the string is twice as long). Used for refresh tokens.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. Useful for passwords and PINs read
// from the terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
