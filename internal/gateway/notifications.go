package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sakif/qaforum/internal/model"
)

// ListNotifications returns a user's feed, newest first.
// GET /notifications/user/:userId → {notifications}
func (c *Client) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	var out struct {
		Notifications []model.Notification `json:"notifications"`
	}
	err := c.do(ctx, "notifications.list", http.MethodGet, fmt.Sprintf("/notifications/user/%d", userID), nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Notifications == nil {
		return []model.Notification{}, nil
	}
	return out.Notifications, nil
}

// MarkNotificationRead flags one notification as read.
// PUT /notifications/:id/read → status only
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, "notifications.read", http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead flags every notification of a user as read.
// PUT /notifications/user/:userId/read-all → status only
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	return c.do(ctx, "notifications.read_all", http.MethodPut,
		fmt.Sprintf("/notifications/user/%d/read-all", userID), nil, nil)
}

// UnreadCount asks the backend how many notifications are unread.
// GET /notifications/user/:userId/unread-count → {count}
func (c *Client) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, "notifications.unread_count", http.MethodGet,
		fmt.Sprintf("/notifications/user/%d/unread-count", userID), nil, &out)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}
