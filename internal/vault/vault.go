// Package vault seals and opens the encrypted configuration bundles the
// process loads at startup. Bundles are AES-256-GCM: a random 12-byte nonce
// followed by the ciphertext, keyed by a 256-bit key supplied out-of-band as
// 64 hex characters.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// KeyHexLength is the required length of the hex-encoded key string.
const KeyHexLength = 64

const nonceSize = 12

// ParseKey decodes a 64-hex-character key string into the raw 32-byte key.
// Length is checked before decoding so a truncated key never reaches the
// cipher layer.
func ParseKey(keyHex string) ([]byte, error) {
	if len(keyHex) != KeyHexLength {
		return nil, fmt.Errorf("encryption key must be exactly %d hex characters, got %d", KeyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext into a bundle blob (nonce || ciphertext).
func Seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// Open decrypts a bundle blob produced by Seal.
func Open(key, blob []byte) ([]byte, error) {
	if len(blob) <= nonceSize {
		return nil, fmt.Errorf("bundle too short: %d bytes", len(blob))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt bundle: %w", err)
	}
	return plaintext, nil
}

// OpenFile reads and decrypts a bundle from disk.
func OpenFile(key []byte, path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	return Open(key, blob)
}

// OpenJSONFile decrypts a bundle from disk and unmarshals the plaintext
// JSON document into v.
func OpenJSONFile(key []byte, path string, v any) error {
	plaintext, err := OpenFile(key, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("parse bundle %s: %w", path, err)
	}
	return nil
}

// SealJSONFile marshals v and writes the sealed bundle to path.
func SealJSONFile(key []byte, path string, v any) error {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	blob, err := Seal(key, plaintext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return fmt.Errorf("write bundle %s: %w", path, err)
	}
	return nil
}
