// Package relay is the HTTP client side of the pub/sub relay protocol:
// publish a message body under a topic, or poll a topic for the
// messages published during a lookback window.
package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"drift.share/internal/models"
)

// DefaultTimeout bounds each relay request. Fetch failures degrade to
// empty results upstream, so a short timeout only costs one window's
// messages for one cycle.
const DefaultTimeout = 10 * time.Second

// DefaultSince is the poll lookback passed to the relay.
const DefaultSince = "12h"

type Client struct {
	http *http.Client
}

// NewClient builds a relay client with the given per-request timeout;
// zero or negative falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Publish posts body under topic. The topic is consumed here and must
// not be retained by the caller afterwards.
func (c *Client) Publish(ctx context.Context, server, topic, body, title string) error {
	endpoint, err := topicURL(server, topic, "")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("building publish request: %w", err)
	}
	if title != "" {
		req.Header.Set("X-Title", title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("publishing to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay publish returned %s", resp.Status)
	}
	return nil
}

// Poll fetches the messages published under topic within the since
// lookback (a relay-side duration string like "12h"). The response is
// newline-delimited JSON; malformed lines and non-message events are
// skipped, not errors.
func (c *Client) Poll(ctx context.Context, server, topic, since string) ([]models.Message, error) {
	if since == "" {
		since = DefaultSince
	}
	endpoint, err := topicURL(server, topic, "json?poll=1&since="+url.QueryEscape(since))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building poll request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay poll returned %s", resp.Status)
	}
	return decodeStream(resp.Body), nil
}

func decodeStream(r io.Reader) []models.Message {
	var out []models.Message
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var m models.Message
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			logrus.WithError(err).Debug("skipping malformed relay line")
			continue
		}
		if m.Event != models.EventMessage {
			continue
		}
		out = append(out, m)
	}
	return out
}

func topicURL(server, topic, suffix string) (string, error) {
	base, err := url.Parse(server)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid relay server URL %q", server)
	}
	endpoint := strings.TrimRight(server, "/") + "/" + topic
	if suffix != "" {
		endpoint += "/" + suffix
	}
	return endpoint, nil
}
