package models

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyFromString_RoundTrip(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i * 3)
	}
	encoded := "ed25519:" + base58.Encode(raw[:])

	key, err := PublicKeyFromString(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), key.KeyType)
	assert.Equal(t, raw, key.Data)
	assert.Equal(t, encoded, key.String())
}

func TestPublicKeyFromString_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no curve prefix", "HeaBJ3sUfBhTggLdrUWF8Hak81pgHUEEXQ4PottBUj1K"},
		{"unsupported curve", "secp256k1:HeaBJ3sUfBhTggLdrUWF8Hak81pgHUEEXQ4PottBUj1K"},
		{"not base58", "ed25519:0OIl"},
		{"wrong length", "ed25519:abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PublicKeyFromString(tc.in)
			assert.Error(t, err)
		})
	}
}
