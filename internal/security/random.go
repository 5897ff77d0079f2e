package security

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// temporaryAlphabet omits look-alike characters (0/O, 1/l/I) so administrators can read passwords aloud.
const temporaryAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TemporaryPasswordLength gives ~70 bits of entropy with temporaryAlphabet.
const TemporaryPasswordLength = 12

// GenerateTemporaryPassword returns a random password for first-login issuance, drawn uniformly
// from temporaryAlphabet with crypto/rand.
func GenerateTemporaryPassword() (string, error) {
	max := big.NewInt(int64(len(temporaryAlphabet)))
	out := make([]byte, TemporaryPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = temporaryAlphabet[n.Int64()]
	}
	return string(out), nil
}

// GenerateURLToken returns n random bytes encoded as unpadded base64url.
func GenerateURLToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
