package random

import (
	"crypto/rand"
)

// Random draws random identifiers. Tests substitute a deterministic source.
type Random interface {
	// String returns length characters drawn uniformly from alphabet
	String(length int, alphabet string) string
}

// CryptoRandom draws from crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// String returns length characters drawn uniformly from alphabet, which must
// hold at most 256 symbols. Bytes that would bias the draw are rejected.
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 || len(alphabet) > 256 {
		return ""
	}
	limit := 256 - 256%len(alphabet)

	result := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(result) < length {
		// crypto/rand.Read never fails on supported platforms
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}
	return string(result)
}
