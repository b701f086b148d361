package models

import (
	"encoding/json"
	"testing"
)

// The compact payload carries "e" in unix seconds while everything
// inside the module is unix milliseconds; the conversion lives in this
// type and nowhere else.
func TestPairingWireUnits(t *testing.T) {
	raw := []byte(`{"s":"abc123","e":1767225600,"w":21600,"u":"https://relay.example"}`)

	p, err := ParsePairing(raw)
	if err != nil {
		t.Fatalf("ParsePairing failed: %v", err)
	}
	if p.ExpiresAt != 1767225600*1000 {
		t.Fatalf("ExpiresAt = %d, want milliseconds", p.ExpiresAt)
	}
	if p.WindowSeconds != 21600 || p.Server != "https://relay.example" || p.Secret != "abc123" {
		t.Fatalf("unexpected pairing: %+v", p)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(out, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if wire["e"] != float64(1767225600) {
		t.Fatalf("wire e = %v, want unix seconds", wire["e"])
	}
}

func TestParsePairingGarbage(t *testing.T) {
	if _, err := ParsePairing([]byte("not json")); err == nil {
		t.Fatal("expected error for garbage payload")
	}
}
