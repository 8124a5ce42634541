package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/qaforum/internal/model"
)

// NotificationGateway is the part of the remote gateway the notification
// store uses.
type NotificationGateway interface {
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
}

// NotificationStore caches a user's notification feed.
//
// The unread count is never tracked incrementally: every mutation recomputes
// it from the list, so it always equals the number of unread entries.
type NotificationStore struct {
	mu      sync.Mutex
	items   []model.Notification
	unread  int
	lastErr error
	pending int

	remote NotificationGateway
	logger *slog.Logger
}

// NewNotificationStore creates an empty notification store.
func NewNotificationStore(remote NotificationGateway, logger *slog.Logger) *NotificationStore {
	return &NotificationStore{
		items:  []model.Notification{},
		remote: remote,
		logger: logger,
	}
}

// recount must be called with s.mu held.
func (s *NotificationStore) recount() {
	s.unread = model.CountUnread(s.items)
}

// FetchNotifications replaces the feed with userID's notifications. A zero
// userID is a no-op. On failure the previous feed is kept.
func (s *NotificationStore) FetchNotifications(ctx context.Context, userID int64) error {
	if userID == 0 {
		return nil
	}

	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	ns, err := s.remote.ListNotifications(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--

	if err != nil {
		err = normalize(err, "Failed to fetch notifications")
		s.lastErr = err
		s.logger.Warn("fetching notifications failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fetching notifications: %w", err)
	}

	s.items = append([]model.Notification{}, ns...)
	s.lastErr = nil
	s.recount()
	return nil
}

// MarkAsRead marks one notification read once the backend confirms it.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id int64) error {
	if err := s.remote.MarkNotificationRead(ctx, id); err != nil {
		return normalize(err, "Failed to mark notification as read")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
		}
	}
	s.recount()
	return nil
}

// MarkAllAsRead marks every cached notification of userID read once the
// backend confirms it. A zero userID is a no-op.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID int64) error {
	if userID == 0 {
		return nil
	}
	if err := s.remote.MarkAllNotificationsRead(ctx, userID); err != nil {
		return normalize(err, "Failed to mark notifications as read")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].UserID == userID {
			s.items[i].Read = true
		}
	}
	s.recount()
	return nil
}

// AddNotification inserts n at the head of the feed without a round trip.
func (s *NotificationStore) AddNotification(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]model.Notification{n}, s.items...)
	s.recount()
}

// Notifications returns a copy of the feed, newest first.
func (s *NotificationStore) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification{}, s.items...)
}

func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *NotificationStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *NotificationStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Reset drops the feed, e.g. on logout.
func (s *NotificationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []model.Notification{}
	s.unread = 0
	s.lastErr = nil
}
