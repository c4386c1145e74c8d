package shortener

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet for base62 codes (0-9, a-z, A-Z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSecureSlug creates a cryptographically secure random base62 slug.
// Used for order short ids and ticket codes.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// EncodeID converts a numeric ID into a short base62 string.
func EncodeID(id uint) string {
	if id == 0 {
		return string(alphabet[0])
	}

	base := uint(len(alphabet))
	encoded := strings.Builder{}

	for id > 0 {
		encoded.WriteByte(alphabet[id%base])
		id = id / base
	}

	// Reverse the string
	runes := []rune(encoded.String())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// DecodeID converts a base62 string back into the numeric ID.
func DecodeID(code string) (uint, error) {
	var id uint
	base := uint(len(alphabet))

	for _, c := range code {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("invalid character in code: %q", c)
		}
		id = id*base + uint(idx)
	}
	return id, nil
}
