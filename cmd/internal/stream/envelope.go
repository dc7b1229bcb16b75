package stream

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Envelope version for the feed protocol.
const Version = 1

// Envelope types pushed over the feed socket.
const (
	TypeHelloAck         = "hello.ack"
	TypeNewsflashCreated = "newsflash.created"
	TypeError            = "error"
)

// Envelope is the wire frame for every feed message.
type Envelope struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloAckPayload confirms a subscription.
type HelloAckPayload struct {
	ConnID string `json:"conn_id"`
	UserID string `json:"user_id"`
}

// NewsflashCreatedPayload carries one new post to a connected recipient.
type NewsflashCreatedPayload struct {
	NewsflashID string    `json:"newsflash_id"`
	AuthorID    string    `json:"author_id"`
	Content     string    `json:"content"`
	TargetType  string    `json:"target_type"`
	GroupID     string    `json:"group_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorPayload reports a protocol-level problem to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newEnvelope(typ string, payload json.RawMessage, ts time.Time) Envelope {
	return Envelope{
		V:       Version,
		Type:    typ,
		ID:      newRandomHex(10),
		TS:      ts,
		Payload: payload,
	}
}

// newRandomHex returns n random bytes hex-encoded (2n chars).
func newRandomHex(n int) string {
	if n <= 0 {
		n = 10
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
