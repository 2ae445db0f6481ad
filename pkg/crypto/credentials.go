// Package crypto seals the datastore secrets kept on project import targets.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned for malformed ciphertext, a wrong key
	// or a secret sealed for another project.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

const keySize = 32

// CredentialEncryptor seals project secrets with AES-256-GCM. The project ID
// is bound as associated data, so a ciphertext copied to another project's
// target does not open.
type CredentialEncryptor struct {
	gcm   cipher.AEAD
	keyID string
}

// NewCredentialEncryptor creates an encryptor from PROJECT_CREDENTIALS_KEY.
// A base64 value that decodes to 32 bytes is used as the key; anything else
// is treated as a passphrase and hashed with SHA-256.
func NewCredentialEncryptor(keyInput string) (*CredentialEncryptor, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	key := deriveKey(keyInput)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	sum := sha256.Sum256(key)
	return &CredentialEncryptor{gcm: gcm, keyID: hex.EncodeToString(sum[:4])}, nil
}

func deriveKey(keyInput string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(keyInput); err == nil && len(decoded) == keySize {
		return decoded
	}
	hash := sha256.Sum256([]byte(keyInput))
	return hash[:]
}

// KeyID is a short fingerprint of the key, safe to log.
func (e *CredentialEncryptor) KeyID() string {
	return e.keyID
}

// Encrypt seals secret for projectID and returns base64(nonce || ciphertext || tag).
// An empty secret stays empty.
func (e *CredentialEncryptor) Encrypt(projectID uuid.UUID, secret string) (string, error) {
	if secret == "" {
		return "", nil
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.gcm.Seal(nonce, nonce, []byte(secret), projectID[:])
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a secret sealed by Encrypt for the same projectID.
// An empty input stays empty.
func (e *CredentialEncryptor) Decrypt(projectID uuid.UUID, encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	nonceSize := e.gcm.NonceSize()
	if len(data) < nonceSize+e.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	secret, err := e.gcm.Open(nil, data[:nonceSize], data[nonceSize:], projectID[:])
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(secret), nil
}
