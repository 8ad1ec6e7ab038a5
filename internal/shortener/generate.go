package shortener

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// slugAlphabet is the 36-symbol alphabet for generated codes. Generated slugs
// are unique handles, not secrets; the slight modulo bias from mapping 256
// byte values onto 36 symbols is acceptable here.
const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultSlugLength is the length of generated short codes.
	DefaultSlugLength = 8
	minSlugLength     = 4
	maxSlugLength     = 20

	// DefaultTokenBytes yields a 32-character hex management token.
	DefaultTokenBytes = 16
	minTokenBytes     = 8
	maxTokenBytes     = 32
)

// GenerateSlug returns a random short code of the given length drawn from the
// lowercase alphanumeric alphabet. Length outside [4, 20] is a caller
// programming error and panics. A failing random source is returned as an
// error; callers must treat it as fatal, never fall back to a weak PRNG.
func GenerateSlug(length int) (string, error) {
	if length < minSlugLength || length > maxSlugLength {
		panic(fmt.Sprintf("shortener: slug length %d outside [%d, %d]", length, minSlugLength, maxSlugLength))
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, v := range b {
		out[i] = slugAlphabet[int(v)%len(slugAlphabet)]
	}
	return string(out), nil
}

// GenerateDeleteToken returns a lowercase hex bearer credential of
// 2*byteLength characters. Byte length outside [8, 32] is a caller
// programming error and panics.
func GenerateDeleteToken(byteLength int) (string, error) {
	if byteLength < minTokenBytes || byteLength > maxTokenBytes {
		panic(fmt.Sprintf("shortener: token byte length %d outside [%d, %d]", byteLength, minTokenBytes, maxTokenBytes))
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
