package friendship

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRequestAndAccept(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	f, err := s.Request(ctx, now, "bob", "alice")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if f.UserLo != "alice" || f.UserHi != "bob" {
		t.Fatalf("pair not normalized: (%q, %q)", f.UserLo, f.UserHi)
	}
	if f.RequesterID != "bob" || f.Status != StatusPending {
		t.Fatalf("got requester=%q status=%q", f.RequesterID, f.Status)
	}
	if f.AddresseeID() != "alice" {
		t.Fatalf("AddresseeID = %q, want alice", f.AddresseeID())
	}

	accepted, err := s.Accept(ctx, now, "alice", "bob")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != StatusAccepted || accepted.AcceptedAt == nil {
		t.Fatalf("got status=%q acceptedAt=%v", accepted.Status, accepted.AcceptedAt)
	}

	ok, err := s.AreFriends(ctx, "alice", "bob")
	if err != nil || !ok {
		t.Fatalf("AreFriends = (%v, %v), want true", ok, err)
	}
}

func TestRequestRejections(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Request(ctx, now, "alice", "alice"); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("self request: got %v, want ErrSelfRequest", err)
	}
	if _, err := s.Request(ctx, now, "", "bob"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty requester: got %v, want ErrInvalidInput", err)
	}

	if _, err := s.Request(ctx, now, "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	// Duplicate pending, same and opposite direction.
	if _, err := s.Request(ctx, now, "alice", "bob"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("duplicate: got %v, want ErrRequestPending", err)
	}
	if _, err := s.Request(ctx, now, "bob", "alice"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("reverse duplicate: got %v, want ErrRequestPending", err)
	}

	if _, err := s.Accept(ctx, now, "bob", "alice"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := s.Request(ctx, now, "alice", "bob"); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("after accept: got %v, want ErrAlreadyFriends", err)
	}
}

func TestAcceptOnlyByAddressee(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Request(ctx, now, "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	// The requester cannot accept their own request.
	if _, err := s.Accept(ctx, now, "alice", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("requester self-accept: got %v, want ErrNotFound", err)
	}

	if _, err := s.Accept(ctx, now, "bob", "alice"); err != nil {
		t.Fatalf("addressee accept: %v", err)
	}

	// No longer pending.
	if _, err := s.Accept(ctx, now, "bob", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat accept: got %v, want ErrNotFound", err)
	}
}

func TestDeclineAndCancel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	// Decline by addressee.
	if _, err := s.Request(ctx, now, "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := s.DeletePending(ctx, "bob", "alice"); err != nil {
		t.Fatalf("DeletePending (decline): %v", err)
	}

	// Cancel by requester.
	if _, err := s.Request(ctx, now, "alice", "bob"); err != nil {
		t.Fatalf("Request after decline: %v", err)
	}
	if err := s.DeletePending(ctx, "alice", "bob"); err != nil {
		t.Fatalf("DeletePending (cancel): %v", err)
	}

	if err := s.DeletePending(ctx, "alice", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestRemoveFriend(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Request(ctx, now, "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	// Pending rows are not removable as friends.
	if err := s.RemoveFriend(ctx, "alice", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove pending: got %v, want ErrNotFound", err)
	}

	if _, err := s.Accept(ctx, now, "bob", "alice"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := s.RemoveFriend(ctx, "bob", "alice"); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}

	ok, err := s.AreFriends(ctx, "alice", "bob")
	if err != nil || ok {
		t.Fatalf("AreFriends after remove = (%v, %v), want false", ok, err)
	}
}

func TestListFriendsAndPending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	mustRequest := func(from, to string, at time.Time) {
		t.Helper()
		if _, err := s.Request(ctx, at, from, to); err != nil {
			t.Fatalf("Request(%s, %s): %v", from, to, err)
		}
	}

	mustRequest("alice", "bob", base)
	mustRequest("carol", "alice", base.Add(time.Second))
	mustRequest("alice", "dave", base.Add(2*time.Second))

	if _, err := s.Accept(ctx, base.Add(3*time.Second), "bob", "alice"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	friends, err := s.ListFriends(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(friends) != 1 || friends[0] != "bob" {
		t.Fatalf("friends = %v, want [bob]", friends)
	}

	pending, err := s.ListPending(ctx, "alice")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d rows, want 2", len(pending))
	}
	// Ordered by creation: carol's request first, then alice -> dave.
	if pending[0].RequesterID != "carol" || pending[1].RequesterID != "alice" {
		t.Fatalf("pending order = [%s, %s]", pending[0].RequesterID, pending[1].RequesterID)
	}

	// Users with nothing pending see empty lists, not errors.
	none, err := s.ListPending(ctx, "eve")
	if err != nil || len(none) != 0 {
		t.Fatalf("ListPending(eve) = (%v, %v)", none, err)
	}
}

func TestAreFriendsSelfIsFalse(t *testing.T) {
	s := NewMemoryStore()
	ok, err := s.AreFriends(context.Background(), "alice", "alice")
	if err != nil || ok {
		t.Fatalf("AreFriends(self) = (%v, %v), want (false, nil)", ok, err)
	}
}
