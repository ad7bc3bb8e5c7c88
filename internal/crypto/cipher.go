// Package crypto seals chat messages at rest with AES-256-GCM.
//
// Blob layout: nonce (12 bytes) || tag (16 bytes) || ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/thenoetrevino/tablero/internal/models"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	// ErrCiphertextTooShort is returned for blobs shorter than nonce plus tag
	ErrCiphertextTooShort = fmt.Errorf("%w: ciphertext too short", models.ErrInternal)

	// ErrAuthentication is returned when the tag does not verify (tampering or wrong key)
	ErrAuthentication = fmt.Errorf("%w: message authentication failed", models.ErrInternal)

	// ErrInvalidKey is returned for keys that are not 32 bytes
	ErrInvalidKey = fmt.Errorf("%w: chat key must be %d bytes", models.ErrInternal, KeySize)
)

var (
	hkdfSalt = []byte("tablero/chat/salt")
	hkdfInfo = []byte("tablero chat v1")
)

// DeriveKey turns the configured secret into a 32-byte key.
// 64 hex characters are decoded directly; anything else goes through HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: chat secret is not configured", models.ErrInternal)
	}

	if len(secret) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), hkdfSalt, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive chat key: %w", err)
	}
	return key, nil
}

// Cipher encrypts and decrypts message bodies. Safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewCipher creates a cipher from a 32-byte key
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// NewCipherFromSecret derives a key from secret and creates a cipher
func NewCipherFromSecret(secret string) (*Cipher, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

// Encrypt seals plaintext under a fresh random nonce
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to read nonce: %v", models.ErrInternal, err)
	}

	// Seal appends ciphertext||tag; the stored layout puts the tag first
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	body, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	blob := make([]byte, 0, NonceSize+TagSize+len(body))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, body...)
	return blob, nil
}

// Decrypt verifies and opens a blob produced by Encrypt
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < NonceSize+TagSize {
		return nil, ErrCiphertextTooShort
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize : NonceSize+TagSize]
	body := blob[NonceSize+TagSize:]

	sealed := make([]byte, 0, len(body)+TagSize)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// IsCipherError reports whether err came from decryption
func IsCipherError(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrCiphertextTooShort)
}
