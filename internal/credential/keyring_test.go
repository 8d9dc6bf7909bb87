package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryRing(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	openRing = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openRing = openKeyring })
}

func TestToken_EnvironmentTakesPrecedence(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	tok, err := Token()
	require.NoError(t, err)
	assert.Equal(t, "env-token", tok)
}

func TestSaveAndDeleteToken(t *testing.T) {
	memoryRing(t)
	t.Setenv(TokenEnv, "")

	require.NoError(t, SaveToken("stored"))
	tok, err := Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", tok)

	require.NoError(t, DeleteToken())
	_, err = Token()
	assert.Error(t, err)

	// Signing out twice is fine.
	require.NoError(t, DeleteToken())
}
