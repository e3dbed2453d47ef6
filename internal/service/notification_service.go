package service

import (
	"context"
	"log/slog"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationService struct {
	Tx               repository.Transactor
	NotificationRepo repository.NotificationRepositoryInterface
	PreferenceRepo   repository.PreferenceRepositoryInterface
	Logger           *slog.Logger
}

type NotificationPage struct {
	Items       []model.Notification `json:"items"`
	UnreadCount int                  `json:"unread_count"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// ListForUser pages through a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) (*NotificationPage, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.NotificationRepo.ListForUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, appErrors.Internal("list notifications", err)
	}
	unread, err := s.NotificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("count unread notifications", err)
	}
	return &NotificationPage{Items: items, UnreadCount: unread, Limit: limit, Offset: offset}, nil
}

// MarkRead flags the given notifications as read. Ids owned by someone else are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, appErrors.NewInvalidInput("ids must not be empty")
	}
	n, err := s.NotificationRepo.MarkRead(ctx, userID, ids)
	if err != nil {
		return 0, appErrors.Internal("mark notifications read", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.NotificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal("mark all notifications read", err)
	}
	return n, nil
}

// GetEmailPreferences returns every category; unset ones default to enabled.
func (s *NotificationService) GetEmailPreferences(ctx context.Context, userID string) (map[string]bool, error) {
	stored, err := s.PreferenceRepo.GetEmailPreferences(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal("get email preferences", err)
	}
	prefs := make(map[string]bool)
	for _, key := range PreferenceKeys() {
		enabled, ok := stored[key]
		prefs[key] = !ok || enabled
	}
	return prefs, nil
}

func (s *NotificationService) SetEmailPreferences(ctx context.Context, userID string, prefs map[string]bool) (map[string]bool, error) {
	if len(prefs) == 0 {
		return nil, appErrors.NewInvalidInput("no preferences given")
	}
	known := make(map[string]bool)
	for _, key := range PreferenceKeys() {
		known[key] = true
	}
	for key := range prefs {
		if !known[key] {
			return nil, appErrors.NewInvalidInput("unknown email preference %q", key)
		}
	}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.PreferenceRepo.SetEmailPreferences(ctx, userID, prefs)
	})
	if err != nil {
		return nil, appErrors.Internal("set email preferences", err)
	}
	return s.GetEmailPreferences(ctx, userID)
}
