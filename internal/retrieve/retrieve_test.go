package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drift.share/internal/channel"
	"drift.share/internal/models"
	"drift.share/internal/relay"
	"drift.share/internal/topic"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestTopicsSkewTolerance(t *testing.T) {
	// Window index 5 for a 6h window: expect exactly the topics for
	// windows 5 and 4, in that order.
	nowMillis := int64(5 * 21600 * 1000)
	topics, err := Topics(testSecret, 21600, nowMillis, topic.DefaultLength)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	current, err := topic.Derive(testSecret, 5, topic.DefaultLength)
	require.NoError(t, err)
	previous, err := topic.Derive(testSecret, 4, topic.DefaultLength)
	require.NoError(t, err)

	assert.Equal(t, []string{current, previous}, topics)
	assert.NotEqual(t, topics[0], topics[1])
	assert.Len(t, topics[0], 32)
	assert.Len(t, topics[1], 32)
}

func TestTopicsPinnedScenario(t *testing.T) {
	pattern := strings.Repeat("0123456789abcdef", 4)
	topics, err := Topics(pattern, 21600, 5*21600*1000, topic.DefaultLength)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"569dc97dcc39a999ac14a7f537d2b9c8",
		"b3dc9523ce8481946245ed13280c2099",
	}, topics)
}

func TestTopicsAtWindowZero(t *testing.T) {
	topics, err := Topics(testSecret, 21600, 1000, topic.DefaultLength)
	require.NoError(t, err)
	require.Len(t, topics, 1, "window zero has no previous window")
}

func TestTopicsMalformedSecret(t *testing.T) {
	_, err := Topics("nothex", 21600, 5*21600*1000, topic.DefaultLength)
	require.ErrorIs(t, err, topic.ErrMalformedSecret)
}

func TestMergeDedupes(t *testing.T) {
	a := []models.Message{
		{ID: "m1", Time: 100, Event: models.EventMessage, Message: "one"},
		{ID: "m2", Time: 200, Event: models.EventMessage, Message: "two"},
	}
	b := []models.Message{
		{ID: "m2", Time: 200, Event: models.EventMessage, Message: "two"},
		{ID: "m3", Time: 300, Event: models.EventMessage, Message: "three"},
	}

	merged := Merge(a, b)
	require.Len(t, merged, 3)
	assert.Equal(t, "m3", merged[0].ID)
	assert.Equal(t, "m2", merged[1].ID)
	assert.Equal(t, "m1", merged[2].ID)
}

func TestMergeIdempotent(t *testing.T) {
	set := []models.Message{
		{ID: "m1", Time: 100},
		{ID: "m2", Time: 200},
	}
	once := Merge(set)
	twice := Merge(set, set)
	assert.Equal(t, once, twice)
	assert.Equal(t, twice, Merge(twice))
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, nil))
}

// relayStub serves canned NDJSON per topic and lets individual topics
// fail.
func relayStub(t *testing.T, responses map[string]string, failing map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[1] != "json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		name := parts[0]
		if failing[name] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, responses[name])
	}))
}

func testChannel(server string) channel.Channel {
	return channel.Channel{
		Name:          "test",
		Secret:        testSecret,
		Server:        server,
		WindowSeconds: 21600,
	}
}

func TestFetchMergesBothWindows(t *testing.T) {
	nowMillis := int64(5 * 21600 * 1000)
	topics, err := Topics(testSecret, 21600, nowMillis, topic.DefaultLength)
	require.NoError(t, err)

	// The boundary message shows up under both topics and must appear
	// exactly once.
	responses := map[string]string{
		topics[0]: `{"id":"new","time":300,"event":"message","message":"current"}
{"id":"boundary","time":250,"event":"message","message":"both"}`,
		topics[1]: `{"id":"boundary","time":250,"event":"message","message":"both"}
{"id":"old","time":100,"event":"message","message":"previous"}`,
	}
	ts := relayStub(t, responses, nil)
	defer ts.Close()

	client := relay.NewClient(2 * time.Second)
	msgs, err := Fetch(context.Background(), client, testChannel(ts.URL), nowMillis, "12h", topic.DefaultLength)
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "new", msgs[0].ID)
	assert.Equal(t, "boundary", msgs[1].ID)
	assert.Equal(t, "old", msgs[2].ID)
}

func TestFetchDegradesOnPartialFailure(t *testing.T) {
	nowMillis := int64(5 * 21600 * 1000)
	topics, err := Topics(testSecret, 21600, nowMillis, topic.DefaultLength)
	require.NoError(t, err)

	responses := map[string]string{
		topics[0]: `{"id":"ok","time":300,"event":"message","message":"still here"}`,
	}
	ts := relayStub(t, responses, map[string]bool{topics[1]: true})
	defer ts.Close()

	client := relay.NewClient(2 * time.Second)
	msgs, err := Fetch(context.Background(), client, testChannel(ts.URL), nowMillis, "12h", topic.DefaultLength)
	require.NoError(t, err, "a failed window must not surface as an error")
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].ID)
}

func TestFetchAllWindowsFailing(t *testing.T) {
	nowMillis := int64(5 * 21600 * 1000)
	topics, err := Topics(testSecret, 21600, nowMillis, topic.DefaultLength)
	require.NoError(t, err)

	ts := relayStub(t, nil, map[string]bool{topics[0]: true, topics[1]: true})
	defer ts.Close()

	client := relay.NewClient(2 * time.Second)
	msgs, err := Fetch(context.Background(), client, testChannel(ts.URL), nowMillis, "12h", topic.DefaultLength)
	require.NoError(t, err)
	assert.Empty(t, msgs, "all windows failing means no messages, not an error")
}
