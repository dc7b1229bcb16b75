package newsflash

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/friendship"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/group"
)

// Sink receives newly created newsflashes together with the resolved
// recipient ids. Delivery is best-effort: a sink must not assume it sees
// every post, and its errors never fail post creation.
type Sink interface {
	NewsflashCreated(ctx context.Context, n Newsflash, recipientIDs []string)
}

// Service enforces sharing rules on top of a Store and fans created posts
// out to the registered sinks.
type Service struct {
	log     *slog.Logger
	store   Store
	friends friendship.Store
	groups  group.Store
	sinks   []Sink
}

func NewService(log *slog.Logger, store Store, friends friendship.Store, groups group.Store, sinks ...Sink) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("newsflash: nil store")
	}
	if friends == nil {
		return nil, errors.New("newsflash: nil friendship store")
	}
	if groups == nil {
		return nil, errors.New("newsflash: nil group store")
	}
	return &Service{log: log, store: store, friends: friends, groups: groups, sinks: sinks}, nil
}

// Create validates and stores a post, then notifies sinks with the
// resolved recipients. Group posts require the author to be a member.
func (s *Service) Create(ctx context.Context, now time.Time, in AppendInput) (Newsflash, error) {
	in, err := validateAppend(in)
	if err != nil {
		return Newsflash{}, err
	}

	if in.TargetType == TargetGroup {
		ok, err := s.groups.IsMember(ctx, in.GroupID, in.AuthorID)
		if err != nil {
			if errors.Is(err, group.ErrNotFound) {
				return Newsflash{}, ErrNotFound
			}
			return Newsflash{}, err
		}
		if !ok {
			return Newsflash{}, ErrNotMember
		}
	}

	n, err := s.store.Append(ctx, now, in)
	if err != nil {
		return Newsflash{}, err
	}

	recipients, err := s.resolveRecipients(ctx, n)
	if err != nil {
		// The post is stored; recipients are a delivery concern only.
		s.log.Error("newsflash.fanout.resolve.fail", "newsflash_id", n.ID, "err", err)
		return n, nil
	}
	if len(recipients) > 0 {
		for _, sink := range s.sinks {
			sink.NewsflashCreated(ctx, n, recipients)
		}
	}

	return n, nil
}

// Delete soft-deletes a post. Only the author may delete.
func (s *Service) Delete(ctx context.Context, now time.Time, id, authorID string) error {
	return s.store.SoftDelete(ctx, now, id, authorID)
}

// Feed lists friends' posts for a user, newest first.
func (s *Service) Feed(ctx context.Context, userID string, page Page) ([]Newsflash, error) {
	friendIDs, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListFeed(ctx, friendIDs, page)
}

// ByAuthor lists an author's posts as seen by the viewer. The author sees
// everything they wrote; friends see friends-targeted posts; anyone else
// sees nothing.
func (s *Service) ByAuthor(ctx context.Context, viewerID, authorID string, page Page) ([]Newsflash, error) {
	if viewerID == authorID {
		return s.store.ListByAuthor(ctx, authorID, []string{TargetFriends, TargetGroup}, page)
	}
	ok, err := s.friends.AreFriends(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.store.ListByAuthor(ctx, authorID, []string{TargetFriends}, page)
}

// ByGroup lists a group's posts. Members only.
func (s *Service) ByGroup(ctx context.Context, viewerID, groupID string, page Page) ([]Newsflash, error) {
	ok, err := s.groups.IsMember(ctx, groupID, viewerID)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return s.store.ListByGroup(ctx, groupID, page)
}

// resolveRecipients returns everyone who should see the post, author
// excluded.
func (s *Service) resolveRecipients(ctx context.Context, n Newsflash) ([]string, error) {
	if n.TargetType == TargetGroup {
		members, err := s.groups.Members(ctx, n.GroupID)
		if err != nil {
			return nil, err
		}
		out := members[:0]
		for _, id := range members {
			if id != n.AuthorID {
				out = append(out, id)
			}
		}
		return out, nil
	}
	return s.friends.ListFriends(ctx, n.AuthorID)
}
