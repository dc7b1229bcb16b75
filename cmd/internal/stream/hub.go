package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

// FeedHub tracks connected feed clients by user and fans newsflashes out
// to the recipients that are currently online. It implements the newsflash
// fan-out sink.
type FeedHub struct {
	log *slog.Logger

	mu     sync.RWMutex
	byUser map[string]map[string]*Client // user id -> conn id -> client
}

func NewFeedHub(log *slog.Logger) *FeedHub {
	if log == nil {
		log = slog.Default()
	}
	return &FeedHub{
		log:    log,
		byUser: make(map[string]map[string]*Client),
	}
}

// Subscribe registers a client for its user's feed.
func (h *FeedHub) Subscribe(client *Client) {
	if h == nil || client == nil || client.ConnID == "" || client.UserID == "" {
		return
	}

	h.mu.Lock()
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[string]*Client)
	}
	h.byUser[client.UserID][client.ConnID] = client
	h.mu.Unlock()

	metrics.FeedConnections.Inc()
	h.log.Info("stream.subscribe", "user_id", client.UserID, "conn_id", client.ConnID)
}

// Unsubscribe removes a client and signals its shutdown. Removal happens
// before Close so publishers never race a tearing-down client.
func (h *FeedHub) Unsubscribe(userID, connID string) {
	if h == nil || userID == "" || connID == "" {
		return
	}

	var cl *Client

	h.mu.Lock()
	if conns := h.byUser[userID]; conns != nil {
		cl = conns[connID]
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.byUser, userID)
		}
	}
	h.mu.Unlock()

	if cl != nil {
		cl.Close()
		metrics.FeedConnections.Dec()
		h.log.Info("stream.unsubscribe", "user_id", userID, "conn_id", connID)
	}
}

// Publish fans an envelope out to every connection of the given users.
// Non-blocking: full queues and closing clients are dropped and counted.
func (h *FeedHub) Publish(userIDs []string, env Envelope) {
	if h == nil || len(userIDs) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		for _, cl := range h.byUser[userID] {
			if cl == nil {
				continue
			}

			select {
			case <-cl.Done():
				continue
			default:
			}

			select {
			case cl.Send <- env:
			default:
				metrics.FeedEventsDropped.Inc()
			}
		}
	}
}

// NewsflashCreated pushes a newsflash.created envelope to the connected
// recipients. Never fails the caller.
func (h *FeedHub) NewsflashCreated(_ context.Context, n newsflash.Newsflash, recipientIDs []string) {
	payload, err := json.Marshal(NewsflashCreatedPayload{
		NewsflashID: n.ID,
		AuthorID:    n.AuthorID,
		Content:     n.Content,
		TargetType:  n.TargetType,
		GroupID:     n.GroupID,
		CreatedAt:   n.CreatedAt,
	})
	if err != nil {
		h.log.Error("stream.fanout.encode.fail", "newsflash_id", n.ID, "err", err)
		return
	}
	h.Publish(recipientIDs, newEnvelope(TypeNewsflashCreated, payload, time.Now().UTC()))
}
