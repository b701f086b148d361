package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"drift.share/internal/models"
)

func TestRedisStore(t *testing.T) {
	store, err := NewRedisStore(&redis.Options{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
	}, 12*time.Hour)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer store.Close()

	topic := "feedfacefeedfacefeedfacefeedface"
	now := time.Now().Unix()

	fresh := &models.Message{
		ID:      uuid.NewString(),
		Time:    now,
		Event:   models.EventMessage,
		Message: "fresh",
	}
	stale := &models.Message{
		ID:      uuid.NewString(),
		Time:    now - 3600,
		Event:   models.EventMessage,
		Message: "stale",
	}

	ctx := context.Background()
	if err := store.Publish(ctx, topic, fresh); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if err := store.Publish(ctx, topic, stale); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	msgs, err := store.Messages(ctx, topic, time.Unix(now-60, 0))
	if err != nil {
		t.Fatalf("failed to fetch messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("message count mismatch: got %d, want 1", len(msgs))
	}
	if msgs[0].ID != fresh.ID {
		t.Fatalf("message ID mismatch: got %s, want %s", msgs[0].ID, fresh.ID)
	}
	if msgs[0].Message != "fresh" {
		t.Fatalf("message body mismatch: got %s, want fresh", msgs[0].Message)
	}

	if err := store.Publish(ctx, "Not A Topic!", fresh); err != ErrInvalidTopic {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
}
