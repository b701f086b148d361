package channel

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

const nonceSize = 12 // GCM standard nonce size

// vaultMagic prefixes sealed vault files so a sealed file is
// distinguishable from plaintext JSON without guessing.
var vaultMagic = []byte("DSV1")

// Sealed reports whether data carries the sealed vault format.
func Sealed(data []byte) bool {
	return bytes.HasPrefix(data, vaultMagic)
}

// SealingKey derives the 32-byte vault key from a hardware fingerprint
// digest, so the channel file only opens on the machine it was written
// on.
func SealingKey(fingerprintHex string) []byte {
	sum := sha256.Sum256([]byte(fingerprintHex))
	return sum[:]
}

func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation failed: %w", err)
	}

	out := make([]byte, 0, len(vaultMagic)+nonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, vaultMagic...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func open(sealed, key []byte) ([]byte, error) {
	sealed = bytes.TrimPrefix(sealed, vaultMagic)
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("sealed vault too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}

	nonce := sealed[:nonceSize]
	plaintext, err := gcm.Open(nil, nonce, sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("vault decryption failed: %w", err)
	}

	return plaintext, nil
}
