package newsflash

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/friendship"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/group"
)

type captureSink struct {
	mu         sync.Mutex
	posts      []Newsflash
	recipients [][]string
}

func (c *captureSink) NewsflashCreated(_ context.Context, n Newsflash, recipientIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, n)
	cp := append([]string(nil), recipientIDs...)
	c.recipients = append(c.recipients, cp)
}

func newTestService(t *testing.T) (*Service, *captureSink, friendship.Store, group.Store) {
	t.Helper()
	friends := friendship.NewMemoryStore()
	groups := group.NewMemoryStore()
	sink := &captureSink{}
	svc, err := NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewMemoryStore(), friends, groups, sink,
	)
	require.NoError(t, err)
	return svc, sink, friends, groups
}

func befriend(t *testing.T, friends friendship.Store, a, b string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	_, err := friends.Request(ctx, now, a, b)
	require.NoError(t, err)
	_, err = friends.Accept(ctx, now, b, a)
	require.NoError(t, err)
}

func TestCreateFansOutToFriends(t *testing.T) {
	svc, sink, friends, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	befriend(t, friends, "alice", "bob")
	befriend(t, friends, "alice", "carol")

	n, err := svc.Create(ctx, now, AppendInput{
		AuthorID:   "alice",
		Content:    "hello",
		TargetType: TargetFriends,
	})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)

	require.Len(t, sink.posts, 1)
	require.Equal(t, n.ID, sink.posts[0].ID)
	got := append([]string(nil), sink.recipients[0]...)
	sort.Strings(got)
	require.Equal(t, []string{"bob", "carol"}, got)
}

func TestCreateGroupPostRequiresMembership(t *testing.T) {
	svc, sink, _, groups := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	g, err := groups.Create(ctx, now, "alice", "Hikers")
	require.NoError(t, err)

	_, err = svc.Create(ctx, now, AppendInput{
		AuthorID:   "bob",
		Content:    "let me in",
		TargetType: TargetGroup,
		GroupID:    g.ID,
	})
	require.ErrorIs(t, err, ErrNotMember)
	require.Empty(t, sink.posts)

	_, err = svc.Create(ctx, now, AppendInput{
		AuthorID:   "bob",
		Content:    "anyone there",
		TargetType: TargetGroup,
		GroupID:    "no-such-group",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateGroupPostFansOutToMembers(t *testing.T) {
	svc, sink, _, groups := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	g, err := groups.Create(ctx, now, "alice", "Hikers")
	require.NoError(t, err)
	_, err = groups.Invite(ctx, now, g.ID, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, groups.AcceptInvitation(ctx, now, g.ID, "bob"))

	_, err = svc.Create(ctx, now, AppendInput{
		AuthorID:   "alice",
		Content:    "trail sunday",
		TargetType: TargetGroup,
		GroupID:    g.ID,
	})
	require.NoError(t, err)

	// The author is not their own recipient.
	require.Len(t, sink.recipients, 1)
	require.Equal(t, []string{"bob"}, sink.recipients[0])
}

func TestCreateWithoutFriendsSkipsSinks(t *testing.T) {
	svc, sink, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), time.Now().UTC(), AppendInput{
		AuthorID:   "loner",
		Content:    "anyone?",
		TargetType: TargetFriends,
	})
	require.NoError(t, err)
	require.Empty(t, sink.posts, "no recipients means no sink call")
}

func TestFeedShowsFriendsPostsOnly(t *testing.T) {
	svc, _, friends, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	befriend(t, friends, "alice", "bob")

	_, err := svc.Create(ctx, now, AppendInput{AuthorID: "bob", Content: "from bob", TargetType: TargetFriends})
	require.NoError(t, err)
	_, err = svc.Create(ctx, now, AppendInput{AuthorID: "carol", Content: "from carol", TargetType: TargetFriends})
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, "alice", Page{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "from bob", feed[0].Content)
}

func TestByAuthorVisibility(t *testing.T) {
	svc, _, friends, groups := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	befriend(t, friends, "alice", "bob")
	g, err := groups.Create(ctx, now, "alice", "Hikers")
	require.NoError(t, err)

	_, err = svc.Create(ctx, now, AppendInput{AuthorID: "alice", Content: "for friends", TargetType: TargetFriends})
	require.NoError(t, err)
	_, err = svc.Create(ctx, now, AppendInput{AuthorID: "alice", Content: "for the group", TargetType: TargetGroup, GroupID: g.ID})
	require.NoError(t, err)

	own, err := svc.ByAuthor(ctx, "alice", "alice", Page{})
	require.NoError(t, err)
	require.Len(t, own, 2, "author sees all their posts")

	friendView, err := svc.ByAuthor(ctx, "bob", "alice", Page{})
	require.NoError(t, err)
	require.Len(t, friendView, 1)
	require.Equal(t, "for friends", friendView[0].Content)

	strangerView, err := svc.ByAuthor(ctx, "eve", "alice", Page{})
	require.NoError(t, err)
	require.Empty(t, strangerView)
}

func TestByGroupMembersOnly(t *testing.T) {
	svc, _, _, groups := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	g, err := groups.Create(ctx, now, "alice", "Hikers")
	require.NoError(t, err)
	_, err = svc.Create(ctx, now, AppendInput{AuthorID: "alice", Content: "hello group", TargetType: TargetGroup, GroupID: g.ID})
	require.NoError(t, err)

	posts, err := svc.ByGroup(ctx, "alice", g.ID, Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	_, err = svc.ByGroup(ctx, "eve", g.ID, Page{})
	require.ErrorIs(t, err, ErrNotMember)
}

func TestDeleteAuthorOnly(t *testing.T) {
	svc, _, friends, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	befriend(t, friends, "alice", "bob")
	n, err := svc.Create(ctx, now, AppendInput{AuthorID: "alice", Content: "oops", TargetType: TargetFriends})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, now, n.ID, "bob"), ErrNotAuthor)
	require.NoError(t, svc.Delete(ctx, now, n.ID, "alice"))

	feed, err := svc.Feed(ctx, "bob", Page{})
	require.NoError(t, err)
	require.Empty(t, feed)
}
