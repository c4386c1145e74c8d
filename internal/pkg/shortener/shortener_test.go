package shortener

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureSlugLengthAndCharset(t *testing.T) {
	for _, length := range []int{1, 10, 12, 32} {
		slug, err := GenerateSecureSlug(length)
		require.NoError(t, err)
		assert.Len(t, slug, length)
		for _, r := range slug {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q in slug", r)
		}
	}
}

func TestGenerateSecureSlugInvalidLength(t *testing.T) {
	_, err := GenerateSecureSlug(0)
	assert.Error(t, err)
	_, err = GenerateSecureSlug(-5)
	assert.Error(t, err)
}

func TestGenerateSecureSlugUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		slug, err := GenerateSecureSlug(10)
		require.NoError(t, err)
		_, dup := seen[slug]
		require.False(t, dup, "duplicate slug %s", slug)
		seen[slug] = struct{}{}
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	for _, id := range []uint{0, 1, 61, 62, 100, 3843, 3844, 1<<31 - 1} {
		code := EncodeID(id)
		got, err := DecodeID(code)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeIDInvalidCharacter(t *testing.T) {
	_, err := DecodeID("ab!cd")
	assert.Error(t, err)
}
