package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PushMessage is one notification destined for one device.
type PushMessage struct {
	ID       string            `json:"id"`
	Token    string            `json:"token"`
	Platform string            `json:"platform"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

// PushSender delivers one push message. Implementations must be safe for
// concurrent use.
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) error
}

// NewMessageID returns a unique id for a push message.
func NewMessageID() string {
	return uuid.NewString()
}

// NoopPushSender drops messages, logging at debug level. It is the default
// when no push relay is configured.
type NoopPushSender struct {
	Log *slog.Logger
}

func (n NoopPushSender) Send(_ context.Context, msg PushMessage) error {
	if n.Log != nil {
		n.Log.Debug("notify.push.noop", "message_id", msg.ID, "platform", msg.Platform)
	}
	return nil
}

// HTTPPushSender posts messages as JSON to an external push relay.
type HTTPPushSender struct {
	client *http.Client
	url    string
	apiKey string
}

// NewHTTPPushSender builds a sender for the given relay endpoint. The api
// key is optional and sent as a bearer token when present.
func NewHTTPPushSender(url, apiKey string, timeout time.Duration) (*HTTPPushSender, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("notify: empty push relay url")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPushSender{
		client: &http.Client{Timeout: timeout},
		url:    url,
		apiKey: strings.TrimSpace(apiKey),
	}, nil
}

func (s *HTTPPushSender) Send(ctx context.Context, msg PushMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: push relay returned %d", resp.StatusCode)
	}
	return nil
}
