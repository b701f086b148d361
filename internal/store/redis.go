// redis.go
package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"drift.share/internal/models"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each topic's messages in a sorted set scored by
// publish time, so retention trimming and since-filtering are both
// range operations. The key itself expires retention after the last
// publish, which is what makes idle topics vanish without a janitor.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(options *redis.Options, retention time.Duration) (*RedisStore, error) {
	client := redis.NewClient(options)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, retention: retention}, nil
}

func (r *RedisStore) Publish(ctx context.Context, topic string, msg *models.Message) error {
	if !ValidTopic(topic) {
		return ErrInvalidTopic
	}

	data, err := encode(msg)
	if err != nil {
		return err
	}

	key := topicKey(topic)
	oldest := time.Now().Add(-r.retention).Unix()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(msg.Time), Member: data})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(oldest, 10))
		pipe.Expire(ctx, key, r.retention)
		return nil
	})
	return err
}

func (r *RedisStore) Messages(ctx context.Context, topic string, since time.Time) ([]*models.Message, error) {
	if !ValidTopic(topic) {
		return nil, ErrInvalidTopic
	}

	cutoff := since.Unix()
	if oldest := time.Now().Add(-r.retention).Unix(); oldest > cutoff {
		cutoff = oldest
	}

	values, err := r.client.ZRangeByScore(ctx, topicKey(topic), &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Message, 0, len(values))
	for _, v := range values {
		msg, err := decode([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Helpers

func topicKey(topic string) string {
	return "topic:" + topic
}

func encode(msg *models.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*models.Message, error) {
	var msg models.Message
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return &msg, nil
}
