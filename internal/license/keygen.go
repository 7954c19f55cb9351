package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// keyGroups and keyGroupBytes define the NGC-XXXX-XXXX-XXXX-XXXX key shape:
// four groups of four uppercase hex characters, 16 bits of entropy each.
const (
	keyPrefix     = "NGC"
	keyGroups     = 4
	keyGroupBytes = 2
)

// GenerateKey produces a new license key from a cryptographically secure
// random source. Uniqueness is enforced by the store on insert, not here.
func GenerateKey() (string, error) {
	parts := make([]string, 0, keyGroups+1)
	parts = append(parts, keyPrefix)
	for i := 0; i < keyGroups; i++ {
		var b [keyGroupBytes]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("license: random source unavailable: %w", err)
		}
		parts = append(parts, strings.ToUpper(hex.EncodeToString(b[:])))
	}
	return strings.Join(parts, "-"), nil
}
