// Package retrieve fetches a channel's messages from its relay. It
// queries the current and the previous rotation window so that up to
// one full window of clock skew between paired devices never loses
// messages, then merges and deduplicates the per-topic results.
package retrieve

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"drift.share/internal/channel"
	"drift.share/internal/models"
	"drift.share/internal/relay"
	"drift.share/internal/topic"
	"drift.share/internal/window"
)

// Topics returns the topics valid at nowMillis: the current window's
// and the previous window's. At window zero there is no previous
// window, so only the current topic is returned.
func Topics(secret string, windowSeconds, nowMillis int64, length int) ([]string, error) {
	idx := window.Index(windowSeconds, nowMillis)

	current, err := topic.Derive(secret, idx, length)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return []string{current}, nil
	}
	previous, err := topic.Derive(secret, idx-1, length)
	if err != nil {
		return nil, err
	}
	return []string{current, previous}, nil
}

// Fetch polls the relay once per currently-valid topic, concurrently,
// and returns the merged result. A failed poll degrades to an empty
// set for that topic; it never aborts the other topic's fetch and is
// never surfaced as an error. Derived topics live only inside this
// call.
func Fetch(ctx context.Context, client *relay.Client, ch channel.Channel, nowMillis int64, since string, topicLength int) ([]models.Message, error) {
	topics, err := Topics(ch.Secret, ch.WindowSeconds, nowMillis, topicLength)
	if err != nil {
		return nil, err
	}

	sets := make([][]models.Message, len(topics))
	var wg sync.WaitGroup
	for i, t := range topics {
		wg.Add(1)
		go func(i int, t string) {
			defer wg.Done()
			msgs, err := client.Poll(ctx, ch.Server, t, since)
			if err != nil {
				// One window's fetch failing means "no messages in
				// this window", not a retrieval failure.
				logrus.WithFields(logrus.Fields{
					"channel": ch.Name,
					"window":  i,
				}).WithError(err).Debug("relay fetch failed")
				return
			}
			sets[i] = msgs
		}(i, t)
	}
	wg.Wait()

	return Merge(sets...), nil
}

// Merge flattens the per-topic result sets, drops duplicate message
// IDs (a message published near a window boundary shows up under both
// queried topics), and orders newest first. Merging a set with itself
// yields the same set.
func Merge(sets ...[]models.Message) []models.Message {
	seen := make(map[string]bool)
	merged := make([]models.Message, 0)
	for _, set := range sets {
		for _, m := range set {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			merged = append(merged, m)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time > merged[j].Time
	})
	return merged
}
