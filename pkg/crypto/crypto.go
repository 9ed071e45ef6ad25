package crypto

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomString returns n random bytes as unpadded URL-safe base64.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
