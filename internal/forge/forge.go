// Package forge mints new shared secrets bound to this machine's
// hardware fingerprint.
package forge

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"drift.share/internal/models"
)

const (
	// DefaultExpirationDays is how long a fresh pairing stays valid.
	DefaultExpirationDays = 90

	// DefaultWindowSeconds is the topic rotation period (6 hours).
	DefaultWindowSeconds = 21600

	entropyBytes = 32
)

// Options tune a freshly minted pairing. Zero values fall back to the
// package defaults; Server has no default and comes from config.
type Options struct {
	ExpirationDays int
	WindowSeconds  int64
	Server         string
}

// New draws fresh entropy and keys it with the hardware fingerprint so
// the resulting secret is bound to this machine at creation time. The
// result is not persisted; the caller hands it to the channel store.
func New(fingerprintHex string, opts Options) (models.Pairing, error) {
	key, err := hex.DecodeString(fingerprintHex)
	if err != nil {
		return models.Pairing{}, err
	}

	days := opts.ExpirationDays
	if days <= 0 {
		days = DefaultExpirationDays
	}
	windowSeconds := opts.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}

	entropy := make([]byte, entropyBytes)
	if _, err := rand.Read(entropy); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	now := time.Now().UnixMilli()
	mac := hmac.New(sha256.New, key)
	mac.Write(entropy)
	mac.Write([]byte(strconv.FormatInt(now, 10)))

	return models.Pairing{
		Secret:        hex.EncodeToString(mac.Sum(nil)),
		ExpiresAt:     now + int64(days)*86400*1000,
		WindowSeconds: windowSeconds,
		Server:        opts.Server,
	}, nil
}
