package tokens

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	tok, err := GenerateOpaqueToken(16)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, 16)
}

func TestGenerateOpaqueTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := GenerateOpaqueToken(16)
		require.NoError(t, err)
		require.False(t, seen[tok], "duplicate token")
		seen[tok] = true
	}
}

func TestSHA256Base64URL(t *testing.T) {
	a := SHA256Base64URL("credential-a")
	b := SHA256Base64URL("credential-b")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, SHA256Base64URL("credential-a"))
	// 32 bytes of digest, unpadded base64url.
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
}
