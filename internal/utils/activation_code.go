package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// activationCodeBytes gives ~80 bits of entropy, 13-14 base58 characters.
const activationCodeBytes = 10

// GenerateActivationCode returns a random base58 activation code.
func GenerateActivationCode() (string, error) {
	b := make([]byte, activationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base58.Encode(b), nil
}
