package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test key generated with: openssl rand -base64 32
const testKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM=" // "test-key-for-unit-tests-32-bytes"

var testProject = uuid.MustParse("0b4c7c3e-5d7e-4a51-9a3b-2f1e8d6c4b20")

func TestNewCredentialEncryptor(t *testing.T) {
	for _, key := range []string{
		testKey,
		"my-simple-passphrase",
		base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key")),
		base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 64))),
	} {
		enc, err := NewCredentialEncryptor(key)
		require.NoError(t, err, key)
		assert.Len(t, enc.KeyID(), 8)
	}

	_, err := NewCredentialEncryptor("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	for _, secret := range []string{
		"service-role-key",
		"eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0.sig",
		"пароль с пробелами",
		strings.Repeat("k", 4096),
	} {
		sealed, err := enc.Encrypt(testProject, secret)
		require.NoError(t, err)
		assert.NotContains(t, sealed, secret)

		opened, err := enc.Decrypt(testProject, sealed)
		require.NoError(t, err)
		assert.Equal(t, secret, opened)
	}
}

func TestEncrypt_UsesFreshNonce(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.Encrypt(testProject, "same")
	require.NoError(t, err)
	b, err := enc.Encrypt(testProject, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmptyValuesPassThrough(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := enc.Encrypt(testProject, "")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := enc.Decrypt(testProject, "")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestDecrypt_BoundToProject(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := enc.Encrypt(testProject, "secret")
	require.NoError(t, err)

	_, err = enc.Decrypt(uuid.New(), sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_WrongKey(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)
	other, err := NewCredentialEncryptor("a-different-passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, enc.KeyID(), other.KeyID())

	sealed, err := enc.Encrypt(testProject, "secret")
	require.NoError(t, err)

	_, err = other.Decrypt(testProject, sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_Malformed(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	tests := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("short")),
		"tampered":   base64.StdEncoding.EncodeToString(make([]byte, 64)),
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := enc.Decrypt(testProject, input)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}
