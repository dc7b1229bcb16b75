package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

const pushBodyMaxRunes = 120

// Service resolves device tokens for recipients and pushes notifications.
// It implements the newsflash fan-out sink: delivery is best-effort and
// failures never propagate to the caller.
type Service struct {
	log    *slog.Logger
	store  Store
	sender PushSender
}

func NewService(log *slog.Logger, store Store, sender PushSender) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("notify: nil store")
	}
	if sender == nil {
		sender = NoopPushSender{Log: log}
	}
	return &Service{log: log, store: store, sender: sender}, nil
}

// RegisterDevice upserts a device token for a user.
func (s *Service) RegisterDevice(ctx context.Context, now time.Time, userID, token, platform string) (DeviceToken, error) {
	return s.store.Upsert(ctx, now, userID, token, platform)
}

// DeactivateDevice marks a user's device token inactive.
func (s *Service) DeactivateDevice(ctx context.Context, now time.Time, userID, token string) error {
	return s.store.Deactivate(ctx, now, userID, token)
}

// NewsflashCreated pushes a notification to every active device of the
// recipients. Errors are logged and counted, never returned.
func (s *Service) NewsflashCreated(ctx context.Context, n newsflash.Newsflash, recipientIDs []string) {
	if len(recipientIDs) == 0 {
		return
	}

	devices, err := s.store.ActiveForUsers(ctx, recipientIDs)
	if err != nil {
		s.log.Error("notify.push.resolve.fail", "newsflash_id", n.ID, "err", err)
		return
	}

	for _, d := range devices {
		msg := PushMessage{
			ID:       NewMessageID(),
			Token:    d.Token,
			Platform: d.Platform,
			Title:    "New newsflash",
			Body:     truncateRunes(n.Content, pushBodyMaxRunes),
			Data: map[string]string{
				"newsflash_id": n.ID,
				"author_id":    n.AuthorID,
				"target_type":  n.TargetType,
			},
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			metrics.PushDeliveries.WithLabelValues("failed").Inc()
			s.log.Warn("notify.push.send.fail",
				"message_id", msg.ID,
				"platform", d.Platform,
				"user_id", d.UserID,
				"err", err,
			)
			continue
		}
		metrics.PushDeliveries.WithLabelValues("success").Inc()
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
