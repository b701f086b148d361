package hwid

import (
	"errors"
	"testing"
)

func TestFingerprintThreshold(t *testing.T) {
	cases := []struct {
		name       string
		components []string
	}{
		{"no components", nil},
		{"one component", []string{"abc-123"}},
		{"one usable among blanks", []string{"", "abc-123", "   "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Fingerprint(tc.components); !errors.Is(err, ErrInsufficientEvidence) {
				t.Fatalf("expected ErrInsufficientEvidence, got %v", err)
			}
		})
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a, err := Fingerprint([]string{"machine-id-1", "aa:bb:cc:dd:ee:ff", "product-uuid"})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	b, err := Fingerprint([]string{"product-uuid", "machine-id-1", "aa:bb:cc:dd:ee:ff"})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if a != b {
		t.Fatalf("fingerprint depends on collection order: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprintIgnoresBlankComponents(t *testing.T) {
	with, _ := Fingerprint([]string{"id-a", "id-b", ""})
	without, _ := Fingerprint([]string{"id-a", "id-b"})
	if with != without {
		t.Fatal("blank components changed the fingerprint")
	}
}

func TestFingerprintSensitiveToComponents(t *testing.T) {
	a, _ := Fingerprint([]string{"id-a", "id-b"})
	b, _ := Fingerprint([]string{"id-a", "id-c"})
	if a == b {
		t.Fatal("different component sets produced the same fingerprint")
	}
}

func TestVerify(t *testing.T) {
	components := []string{"machine-id-1", "aa:bb:cc:dd:ee:ff"}
	stored, err := Fingerprint(components)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	if !Verify(stored, components) {
		t.Fatal("Verify rejected the matching component set")
	}
	if !Verify(stored, []string{"aa:bb:cc:dd:ee:ff", "machine-id-1"}) {
		t.Fatal("Verify rejected a reordered component set")
	}
	if Verify(stored, []string{"machine-id-2", "aa:bb:cc:dd:ee:ff"}) {
		t.Fatal("Verify accepted a changed component set")
	}
	// Recomputation failure is a false, never a panic or error.
	if Verify(stored, []string{"machine-id-1"}) {
		t.Fatal("Verify accepted an insufficient component set")
	}
	if Verify(stored, nil) {
		t.Fatal("Verify accepted an empty component set")
	}
}
