package utils

import (
	"crypto/rand"
	"math/big"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateDisplayCode returns a human-facing code of n characters from
// a fixed alphanumeric charset. Codes are a display convenience, not an
// identity key: collisions are tolerated and never checked.
func GenerateDisplayCode(n int) string {
	max := big.NewInt(int64(len(codeCharset)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is
			// broken; fall back to a fixed character rather than panic.
			out[i] = codeCharset[0]
			continue
		}
		out[i] = codeCharset[idx.Int64()]
	}
	return string(out)
}
