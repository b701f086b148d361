package forge

import (
	"strings"
	"testing"
	"time"

	"drift.share/internal/hwid"
)

func testFingerprint(t *testing.T) string {
	t.Helper()
	fp, err := hwid.Fingerprint([]string{"machine-id-1", "aa:bb:cc:dd:ee:ff"})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	return fp
}

func TestNewShape(t *testing.T) {
	fp := testFingerprint(t)

	before := time.Now().UnixMilli()
	p, err := New(fp, Options{Server: "https://relay.example"})
	after := time.Now().UnixMilli()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if len(p.Secret) != 64 {
		t.Fatalf("secret length = %d, want 64 hex chars", len(p.Secret))
	}
	if strings.ToLower(p.Secret) != p.Secret {
		t.Fatal("secret is not lowercase hex")
	}
	if p.WindowSeconds != DefaultWindowSeconds {
		t.Fatalf("window = %d, want default %d", p.WindowSeconds, DefaultWindowSeconds)
	}
	if p.Server != "https://relay.example" {
		t.Fatalf("server = %q", p.Server)
	}

	const day = int64(86400 * 1000)
	lo := before + DefaultExpirationDays*day
	hi := after + DefaultExpirationDays*day
	if p.ExpiresAt < lo || p.ExpiresAt > hi {
		t.Fatalf("expiry %d outside [%d, %d]", p.ExpiresAt, lo, hi)
	}
}

func TestNewCustomLifetime(t *testing.T) {
	fp := testFingerprint(t)
	p, err := New(fp, Options{ExpirationDays: 7, WindowSeconds: 3600})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.WindowSeconds != 3600 {
		t.Fatalf("window = %d, want 3600", p.WindowSeconds)
	}
	maxExpiry := time.Now().UnixMilli() + 8*86400*1000
	if p.ExpiresAt > maxExpiry {
		t.Fatalf("7-day pairing expires too late: %d", p.ExpiresAt)
	}
}

func TestNewSecretsAreUnique(t *testing.T) {
	fp := testFingerprint(t)
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		p, err := New(fp, Options{})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if seen[p.Secret] {
			t.Fatal("duplicate secret minted")
		}
		seen[p.Secret] = true
	}
}

func TestNewRejectsMalformedFingerprint(t *testing.T) {
	if _, err := New("not-hex", Options{}); err == nil {
		t.Fatal("expected error for malformed fingerprint")
	}
}
