package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	encrypted, err := Encrypt("imap-app-password", "master-key")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "imap-app-password")

	decrypted, err := Decrypt(encrypted, "master-key")
	require.NoError(t, err)
	assert.Equal(t, "imap-app-password", decrypted)
}

func TestEncrypt_SaltedOutputDiffers(t *testing.T) {
	a, err := Encrypt("same secret", "key")
	require.NoError(t, err)
	b, err := Encrypt("same secret", "key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "a fresh salt and nonce per encryption")
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	encrypted, err := Encrypt("secret", "right-key")
	require.NoError(t, err)

	_, err = Decrypt(encrypted, "wrong-key")
	assert.Error(t, err)
}

func TestDecrypt_Garbage(t *testing.T) {
	_, err := Decrypt("not base64 at all!!", "key")
	assert.Error(t, err)

	_, err = Decrypt("c2hvcnQ=", "key") // valid base64, too short
	assert.Error(t, err)
}
