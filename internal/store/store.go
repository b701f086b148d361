package store

import (
	"context"
	"errors"
	"time"

	"drift.share/internal/models"
)

// ErrInvalidTopic reports a topic name outside the accepted alphabet
// or length.
var ErrInvalidTopic = errors.New("invalid topic name")

// Store keeps published messages per topic for a bounded retention
// period. Polling an unknown topic yields an empty list, never an
// error: the relay cannot distinguish "never published" from
// "expired", and pollers must not be able to either.
type Store interface {
	Publish(ctx context.Context, topic string, msg *models.Message) error
	Messages(ctx context.Context, topic string, since time.Time) ([]*models.Message, error)
	Close() error
}

// topicMaxLen admits full 64-char digests even though derived topics
// default to 32 characters.
const topicMaxLen = 64

// ValidTopic accepts lowercase hex topic names, the only shape the
// deriver produces.
func ValidTopic(topic string) bool {
	if len(topic) == 0 || len(topic) > topicMaxLen {
		return false
	}
	for _, r := range topic {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
