// Package channel persists pairings and enforces their lifecycle:
// creation from a pairing payload, rename, removal, lazy expiration
// sweep, and the one-shot migration from the legacy single-pairing
// format.
package channel

import (
	"encoding/hex"
	"errors"
)

var (
	// ErrInvalidSecretLength reports a pairing whose secret is not
	// exactly 64 hex characters.
	ErrInvalidSecretLength = errors.New("secret must be exactly 64 hex characters")

	// ErrAlreadyExpired reports a pairing whose expiry is not in the
	// future.
	ErrAlreadyExpired = errors.New("pairing has already expired")

	// ErrNameTaken reports that no unique channel name could be
	// settled on.
	ErrNameTaken = errors.New("channel name already in use")
)

// Channel is one durable pairing record. ExpiresAt is unix
// milliseconds; a channel past its expiry is dead and is purged on the
// next store access.
type Channel struct {
	Name          string `json:"name"`
	Secret        string `json:"secret"`
	Server        string `json:"server"`
	WindowSeconds int64  `json:"windowSeconds"`
	ExpiresAt     int64  `json:"expiresAt"`
}

func (c Channel) expired(nowMillis int64) bool {
	return c.ExpiresAt <= nowMillis
}

// validSecret requires exactly 64 hex characters (a 256-bit value).
func validSecret(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
