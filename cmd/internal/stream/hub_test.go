package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

func testHub() *FeedHub {
	return NewFeedHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case env := <-c.Send:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func TestPublishReachesSubscribedUsersOnly(t *testing.T) {
	h := testHub()

	bob := NewClient("bob", "c1", 8)
	eve := NewClient("eve", "c2", 8)
	h.Subscribe(bob)
	h.Subscribe(eve)

	env := newEnvelope(TypeNewsflashCreated, nil, time.Now().UTC())
	h.Publish([]string{"bob"}, env)

	got := recvEnvelope(t, bob)
	if got.ID != env.ID {
		t.Fatalf("bob got envelope %q, want %q", got.ID, env.ID)
	}
	select {
	case <-eve.Send:
		t.Fatal("eve must not receive bob's envelope")
	default:
	}
}

func TestPublishFansOutToAllConnectionsOfUser(t *testing.T) {
	h := testHub()

	phone := NewClient("bob", "c1", 8)
	laptop := NewClient("bob", "c2", 8)
	h.Subscribe(phone)
	h.Subscribe(laptop)

	h.Publish([]string{"bob"}, newEnvelope(TypeNewsflashCreated, nil, time.Now().UTC()))

	recvEnvelope(t, phone)
	recvEnvelope(t, laptop)
}

func TestPublishDropsOnBackpressure(t *testing.T) {
	h := testHub()

	// Queue of one: the second publish must drop, not block.
	slow := NewClient("bob", "c1", 1)
	h.Subscribe(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Publish([]string{"bob"}, newEnvelope(TypeNewsflashCreated, nil, time.Now().UTC()))
		h.Publish([]string{"bob"}, newEnvelope(TypeNewsflashCreated, nil, time.Now().UTC()))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	recvEnvelope(t, slow)
	select {
	case <-slow.Send:
		t.Fatal("second envelope should have been dropped")
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := testHub()

	c := NewClient("bob", "c1", 8)
	h.Subscribe(c)
	h.Unsubscribe("bob", "c1")

	select {
	case <-c.Done():
	default:
		t.Fatal("unsubscribe must close the client")
	}

	h.Publish([]string{"bob"}, newEnvelope(TypeNewsflashCreated, nil, time.Now().UTC()))
	select {
	case <-c.Send:
		t.Fatal("unsubscribed client must not receive envelopes")
	default:
	}

	// Idempotent.
	h.Unsubscribe("bob", "c1")
}

func TestNewsflashCreatedEnvelope(t *testing.T) {
	h := testHub()

	c := NewClient("bob", "c1", 8)
	h.Subscribe(c)

	created := time.Now().UTC().Truncate(time.Second)
	n := newsflash.Newsflash{
		ID:         "nf1",
		AuthorID:   "alice",
		Content:    "hello",
		TargetType: newsflash.TargetFriends,
		CreatedAt:  created,
	}
	h.NewsflashCreated(context.Background(), n, []string{"bob"})

	env := recvEnvelope(t, c)
	if env.Type != TypeNewsflashCreated || env.V != Version {
		t.Fatalf("got type=%q v=%d", env.Type, env.V)
	}

	var p NewsflashCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.NewsflashID != "nf1" || p.AuthorID != "alice" || p.Content != "hello" {
		t.Fatalf("payload = %+v", p)
	}
	if !p.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", p.CreatedAt, created)
	}
}
