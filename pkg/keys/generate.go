package keys

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
)

const (
	// Prefix marks strings issued by this package.
	Prefix = "key_"

	// entropyBytes gives 192 bits of randomness per key.
	entropyBytes = 24
)

// GenerateKey returns a new URL-safe key with the Prefix.
func GenerateKey() (string, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrKeyGeneration, err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// HasPrefix reports whether key looks like one issued by GenerateKey.
func HasPrefix(key string) bool {
	return strings.HasPrefix(key, Prefix) && len(key) > len(Prefix)
}

// Mask hides everything but the prefix and the last four characters.
// Use it whenever a key ends up in logs.
func Mask(key string) string {
	if len(key) <= len(Prefix)+4 {
		return strings.Repeat("*", len(key))
	}
	tail := key[len(key)-4:]
	head := ""
	if strings.HasPrefix(key, Prefix) {
		head = Prefix
	}
	return head + "..." + tail
}
