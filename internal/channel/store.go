package channel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"drift.share/internal/models"
)

// maxNameAttempts bounds the search for a free generated name before
// Add gives up with ErrNameTaken.
const maxNameAttempts = 8

// Store is the device's set of channels, backed by a single file.
// Every mutation is a whole-file read-modify-write under one mutex, so
// there is a single writer at a time per process; the file itself is
// replaced atomically via rename.
type Store struct {
	mu   sync.Mutex
	path string
	key  []byte // nil = plaintext vault (host provides its own sealing)
	now  func() time.Time
}

// vaultFile is the persisted shape. The legacy fields carry the old
// single-pairing format; they are consumed by migration and never
// written back.
type vaultFile struct {
	Version  int       `json:"version,omitempty"`
	Channels []Channel `json:"channels,omitempty"`

	LegacySecret        string `json:"secret,omitempty"`
	LegacyServer        string `json:"server,omitempty"`
	LegacyWindowSeconds int64  `json:"windowSeconds,omitempty"`
	LegacyExpiresAt     int64  `json:"expiresAt,omitempty"`
}

const vaultVersion = 2

// Open loads (or lazily creates) the store at path. A non-nil key
// seals the file with AES-GCM; pass nil on hosts that already encrypt
// the storage location. Legacy single-pairing files are migrated here,
// once, and never touched by any other accessor.
func Open(path string, key []byte) (*Store, error) {
	s := &Store{path: path, key: key, now: time.Now}

	v, err := s.load()
	if err != nil {
		return nil, err
	}
	if migrated := migrateLegacy(&v); migrated {
		logrus.WithField("path", path).Info("migrated legacy pairing to channel format")
		if err := s.save(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// migrateLegacy wraps a legacy single-pairing record into one
// generated-name channel. Idempotent: once a channel list exists, or
// when there is nothing to migrate, it is a no-op.
func migrateLegacy(v *vaultFile) bool {
	if v.Channels != nil || v.LegacySecret == "" {
		return false
	}
	expiresAt := v.LegacyExpiresAt
	// The legacy format predates the milliseconds convention; old
	// records written in unix seconds are detectable by magnitude.
	if expiresAt > 0 && expiresAt < 1_000_000_000_000 {
		expiresAt *= 1000
	}
	v.Channels = []Channel{{
		Name:          generateName(),
		Secret:        v.LegacySecret,
		Server:        v.LegacyServer,
		WindowSeconds: v.LegacyWindowSeconds,
		ExpiresAt:     expiresAt,
	}}
	v.LegacySecret = ""
	v.LegacyServer = ""
	v.LegacyWindowSeconds = 0
	v.LegacyExpiresAt = 0
	v.Version = vaultVersion
	return true
}

// Channels returns the live channels in insertion order. Expired
// channels are dropped and the file is rewritten without them; their
// secrets are gone for good after that.
func (s *Store) Channels() ([]Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return nil, err
	}
	live, swept := s.sweep(v.Channels)
	if swept {
		v.Channels = live
		if err := s.save(v); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// Add validates a pairing payload and appends it as a new channel. The
// given name is used when free; a colliding or absent name falls back
// to generated names, bounded by maxNameAttempts. On any failure the
// persisted set is left untouched.
func (s *Store) Add(p models.Pairing, name string) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validSecret(p.Secret) {
		return Channel{}, ErrInvalidSecretLength
	}
	if p.ExpiresAt <= s.now().UnixMilli() {
		return Channel{}, ErrAlreadyExpired
	}

	v, err := s.load()
	if err != nil {
		return Channel{}, err
	}
	live, _ := s.sweep(v.Channels)

	resolved, err := resolveName(name, live)
	if err != nil {
		return Channel{}, err
	}

	ch := Channel{
		Name:          resolved,
		Secret:        p.Secret,
		Server:        p.Server,
		WindowSeconds: p.WindowSeconds,
		ExpiresAt:     p.ExpiresAt,
	}
	v.Channels = append(live, ch)
	v.Version = vaultVersion
	if err := s.save(v); err != nil {
		return Channel{}, err
	}
	return ch, nil
}

func resolveName(requested string, live []Channel) (string, error) {
	taken := make(map[string]bool, len(live))
	for _, c := range live {
		taken[c.Name] = true
	}
	if requested != "" && !taken[requested] {
		return requested, nil
	}
	for i := 0; i < maxNameAttempts; i++ {
		if name := generateName(); !taken[name] {
			return name, nil
		}
	}
	return "", ErrNameTaken
}

// Rename changes a channel's name. Returns false when oldName is not a
// live channel or newName is already held by a different live channel.
func (s *Store) Rename(oldName, newName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return false, err
	}
	live, _ := s.sweep(v.Channels)

	target := -1
	for i, c := range live {
		if c.Name == newName && oldName != newName {
			return false, nil
		}
		if c.Name == oldName {
			target = i
		}
	}
	if target < 0 {
		return false, nil
	}

	live[target].Name = newName
	v.Channels = live
	if err := s.save(v); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes a channel by name. Returns false when no live channel
// has that name.
func (s *Store) Remove(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return false, err
	}
	live, _ := s.sweep(v.Channels)

	kept := live[:0]
	found := false
	for _, c := range live {
		if c.Name == name {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return false, nil
	}

	v.Channels = kept
	if err := s.save(v); err != nil {
		return false, err
	}
	return true, nil
}

// Clear wipes every channel unconditionally.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(vaultFile{Version: vaultVersion, Channels: []Channel{}})
}

func (s *Store) sweep(channels []Channel) (live []Channel, swept bool) {
	now := s.now().UnixMilli()
	live = make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c.expired(now) {
			logrus.WithField("channel", c.Name).Debug("dropping expired channel")
			swept = true
			continue
		}
		live = append(live, c)
	}
	return live, swept
}

func (s *Store) load() (vaultFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return vaultFile{Version: vaultVersion}, nil
		}
		return vaultFile{}, fmt.Errorf("reading channel vault: %w", err)
	}
	if len(data) == 0 {
		return vaultFile{Version: vaultVersion}, nil
	}

	// A vault written before sealing was enabled is still plain JSON;
	// it is accepted as-is and sealed on the next write.
	if Sealed(data) {
		if s.key == nil {
			return vaultFile{}, fmt.Errorf("channel vault is sealed but sealing is disabled")
		}
		data, err = open(data, s.key)
		if err != nil {
			return vaultFile{}, fmt.Errorf("opening channel vault: %w", err)
		}
	}

	var v vaultFile
	if err := json.Unmarshal(data, &v); err != nil {
		return vaultFile{}, fmt.Errorf("parsing channel vault: %w", err)
	}
	return v, nil
}

func (s *Store) save(v vaultFile) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if s.key != nil {
		if data, err = seal(data, s.key); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing channel vault: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing channel vault: %w", err)
	}
	return nil
}
