// Package hwid collapses a device's available hardware identifiers into
// one stable digest used to bind secrets to a machine.
package hwid

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

// MinComponents is the minimum number of usable identifiers required
// before a fingerprint is considered meaningful.
const MinComponents = 2

// ErrInsufficientEvidence reports that too few hardware identifiers
// were available to bind a secret to this machine.
var ErrInsufficientEvidence = errors.New("fewer than 2 usable hardware identifiers")

// componentSep joins identifiers before hashing. A control character
// keeps distinct component lists from colliding after the join.
const componentSep = "\x1f"

// Fingerprint digests the non-empty components into a 256-bit hex
// string. Components are sorted before hashing so the digest does not
// depend on collection order; a sensor that enumerates differently
// run-to-run still yields the same fingerprint as long as the same set
// of identifiers survives.
func Fingerprint(components []string) (string, error) {
	usable := make([]string, 0, len(components))
	for _, c := range components {
		if s := strings.TrimSpace(c); s != "" {
			usable = append(usable, s)
		}
	}
	if len(usable) < MinComponents {
		return "", ErrInsufficientEvidence
	}

	sort.Strings(usable)
	sum := sha256.Sum256([]byte(strings.Join(usable, componentSep)))
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the fingerprint for components and compares it to
// stored. Any failure during recomputation, including insufficient
// evidence, is a verification failure, never an error.
func Verify(stored string, components []string) bool {
	current, err := Fingerprint(components)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(stored), []byte(current))
}
