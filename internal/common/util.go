package common

import (
	"crypto/rand"
	"regexp"
	"strings"
)

var hexAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// WipeByteArray overwrites the contents of b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateRandByteArray returns n bytes from crypto/rand. It panics if the
// system source fails, which leaves nothing safe to do.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// IsHexAddress reports whether s is a 0x-prefixed 20-byte hex address.
// Unlike go-ethereum's helper it requires the prefix.
func IsHexAddress(s string) bool {
	return hexAddressRe.MatchString(s)
}

// CanonicalAddress returns the lower-cased form used for storage.
func CanonicalAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
