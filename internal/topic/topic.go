// Package topic derives relay topic names from a paired shared secret
// and a rotation window index.
//
// The derivation is a cross-implementation contract: every device in a
// pairing must produce byte-identical topics for the same secret and
// window, so the construction (HMAC-SHA256 over the 8-byte big-endian
// window index, keyed by the raw secret bytes) is pinned by test
// vectors and must never change.
package topic

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// DefaultLength is the number of hex characters of the digest used as
// the topic name (128 bits).
const DefaultLength = 32

// ErrMalformedSecret reports a secret that is not valid hex.
var ErrMalformedSecret = errors.New("secret is not valid hex")

// Derive computes the topic for one window. length is clamped to the
// digest size; values < 1 fall back to DefaultLength.
//
// The returned string must not outlive the send or fetch call that
// consumes it.
func Derive(secretHex string, window uint64, length int) (string, error) {
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", ErrMalformedSecret
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], window)

	mac := hmac.New(sha256.New, key)
	mac.Write(msg[:])
	digest := hex.EncodeToString(mac.Sum(nil))

	if length < 1 {
		length = DefaultLength
	}
	if length > len(digest) {
		length = len(digest)
	}
	return digest[:length], nil
}
