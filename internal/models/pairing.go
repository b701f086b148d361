package models

import (
	"encoding/json"
	"fmt"
)

// Pairing is the compact transfer format exchanged once, out of band
// (QR code or manual entry). The JSON keys are single characters to
// keep QR payloads small.
//
// ExpiresAt is unix milliseconds inside this module; the wire field "e"
// is unix seconds and is converted exactly once, here.
type Pairing struct {
	Secret        string
	ExpiresAt     int64
	WindowSeconds int64
	Server        string
}

type pairingWire struct {
	Secret        string `json:"s"`
	ExpiresAtSec  int64  `json:"e"`
	WindowSeconds int64  `json:"w"`
	Server        string `json:"u"`
}

// MarshalJSON emits the compact wire form with "e" in unix seconds.
func (p Pairing) MarshalJSON() ([]byte, error) {
	return json.Marshal(pairingWire{
		Secret:        p.Secret,
		ExpiresAtSec:  p.ExpiresAt / 1000,
		WindowSeconds: p.WindowSeconds,
		Server:        p.Server,
	})
}

// UnmarshalJSON consumes the compact wire form, converting "e" from
// unix seconds to milliseconds.
func (p *Pairing) UnmarshalJSON(data []byte) error {
	var w pairingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Pairing{
		Secret:        w.Secret,
		ExpiresAt:     w.ExpiresAtSec * 1000,
		WindowSeconds: w.WindowSeconds,
		Server:        w.Server,
	}
	return nil
}

// ParsePairing decodes a compact pairing payload.
func ParsePairing(data []byte) (Pairing, error) {
	var p Pairing
	if err := json.Unmarshal(data, &p); err != nil {
		return Pairing{}, fmt.Errorf("parsing pairing payload: %w", err)
	}
	return p, nil
}
