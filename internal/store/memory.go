package store

import (
	"context"
	"sync"
	"time"

	"drift.share/internal/models"
)

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	messages      map[string][]*models.Message
	retention     time.Duration
	mu            sync.RWMutex
	cleanupCancel context.CancelFunc
}

// NewMemoryStore keeps messages in process memory for the retention
// period, with a janitor goroutine sweeping expired entries.
func NewMemoryStore(retention, cleanupInterval time.Duration) *MemoryStore {
	ctx, cancel := context.WithCancel(context.Background())
	store := &MemoryStore{
		messages:      make(map[string][]*models.Message),
		retention:     retention,
		cleanupCancel: cancel,
	}
	go store.cleanupLoop(ctx, cleanupInterval)
	return store
}

func (s *MemoryStore) Publish(ctx context.Context, topic string, msg *models.Message) error {
	if !ValidTopic(topic) {
		return ErrInvalidTopic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[topic] = append(s.messages[topic], msg)
	return nil
}

func (s *MemoryStore) Messages(ctx context.Context, topic string, since time.Time) ([]*models.Message, error) {
	if !ValidTopic(topic) {
		return nil, ErrInvalidTopic
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := since.Unix()
	oldest := time.Now().Add(-s.retention).Unix()
	if oldest > cutoff {
		cutoff = oldest
	}

	var out []*models.Message
	for _, msg := range s.messages[topic] {
		if msg.Time >= cutoff {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	return nil
}

func (s *MemoryStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldest := time.Now().Add(-s.retention).Unix()
	for topic, msgs := range s.messages {
		kept := msgs[:0]
		for _, msg := range msgs {
			if msg.Time >= oldest {
				kept = append(kept, msg)
			}
		}
		if len(kept) == 0 {
			delete(s.messages, topic)
			continue
		}
		s.messages[topic] = kept
	}
}
