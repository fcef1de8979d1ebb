package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	dErrors "trustgate/pkg/domain-errors"
)

// secretBytes is the entropy of every generated secret (256 bits).
const secretBytes = 32

// Generate creates a cryptographically secure random secret encoded as
// unpadded base64url, safe for URLs, headers and JSON.
func Generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateWithPrefix returns prefix + Generate(). Prefixes make secrets
// recognisable in logs and secret scanners (e.g. "cft_").
func GenerateWithPrefix(prefix string) (string, error) {
	s, err := Generate()
	if err != nil {
		return "", err
	}
	return prefix + s, nil
}

// Equal compares two secrets in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
